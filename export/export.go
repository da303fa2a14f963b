// Package export writes the pipeline output tables as CSV and reads uploaded series back in.
// Every table has a header row, dates formatted as 2006-01-02 and a period decimal separator.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/accuracy"
	"github.com/aouyang1/go-traffic-forecaster/anomaly"
	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/growth"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
)

const (
	DateLayout = "2006-01-02"
	Undefined  = "n/a"
)

var (
	ErrEmptyTable       = errors.New("table has no header row")
	ErrUnexpectedHeader = errors.New("unexpected header")
	ErrInvalidRow       = errors.New("invalid row")
)

// Table names the exported tables
type Table string

const (
	TableSeries    Table = "series"
	TableForecast  Table = "forecast"
	TableAnomalies Table = "anomalies"
	TableAccuracy  Table = "accuracy"
	TableGrowth    Table = "growth"
)

// Tables lists every exported table in the order they are produced
var Tables = []Table{TableSeries, TableForecast, TableAnomalies, TableAccuracy, TableGrowth}

var (
	SeriesHeader    = []string{"date", "value"}
	ForecastHeader  = []string{"date", "point_estimate", "lower_bound", "upper_bound"}
	AnomaliesHeader = []string{"date", "value", "deviation_score"}
	AccuracyHeader  = []string{"mape", "rmse", "mae"}
	GrowthHeader    = []string{"date", "segment", "growth_pct"}
)

// ParseTable resolves a table by name
func ParseTable(name string) (Table, bool) {
	for _, t := range Tables {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// FormatFloat renders v with precision decimal places. A negative precision uses the fewest
// digits that represent v exactly.
func FormatFloat(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("unable to write header, %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("unable to write rows, %w", err)
	}
	return nil
}

// WriteSeries writes the validated history
func WriteSeries(w io.Writer, td *timedataset.TimeDataset, precision int) error {
	rows := make([][]string, 0, td.Len())
	for i := 0; i < td.Len(); i++ {
		rows = append(rows, []string{td.T[i].Format(DateLayout), FormatFloat(td.Y[i], precision)})
	}
	return writeAll(w, SeriesHeader, rows)
}

// WriteForecast writes the projected points with their bounds
func WriteForecast(w io.Writer, points []forecast.Point, precision int) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.T.Format(DateLayout),
			FormatFloat(p.Forecast, precision),
			FormatFloat(p.Lower, precision),
			FormatFloat(p.Upper, precision),
		})
	}
	return writeAll(w, ForecastHeader, rows)
}

// WriteAnomalies writes the flagged months. Scores are always written with 4 decimals.
func WriteAnomalies(w io.Writer, records []anomaly.Record, precision int) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.T.Format(DateLayout),
			FormatFloat(r.Value, precision),
			FormatFloat(r.Score, 4),
		})
	}
	return writeAll(w, AnomaliesHeader, rows)
}

// WriteAccuracy writes the metrics as a single row
func WriteAccuracy(w io.Writer, m accuracy.Metrics) error {
	return writeAll(w, AccuracyHeader, [][]string{{
		FormatFloat(m.MAPE, 4),
		FormatFloat(m.RMSE, 4),
		FormatFloat(m.MAE, 4),
	}})
}

// WriteGrowth writes the growth table with undefined months as n/a
func WriteGrowth(w io.Writer, records []growth.Record) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		pct := Undefined
		if r.Pct != nil {
			pct = FormatFloat(*r.Pct, 2)
		}
		rows = append(rows, []string{r.T.Format(DateLayout), string(r.Segment), pct})
	}
	return writeAll(w, GrowthHeader, rows)
}

// ReadForecast parses a table produced by WriteForecast
func ReadForecast(r io.Reader) ([]forecast.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ForecastHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read header, %w", err)
	}
	for i, h := range ForecastHeader {
		if stripBOM(header[i]) != h {
			return nil, fmt.Errorf("column %d is %q instead of %q, %w", i, header[i], h, ErrUnexpectedHeader)
		}
	}

	var points []forecast.Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read line %d, %w", line, err)
		}

		t, err := time.Parse(DateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d date %q, %w", line, rec[0], ErrInvalidRow)
		}
		var vals [3]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s %q, %w", line, ForecastHeader[j+1], rec[j+1], ErrInvalidRow)
			}
		}
		points = append(points, forecast.Point{T: t, Forecast: vals[0], Lower: vals[1], Upper: vals[2]})
	}
	return points, nil
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
