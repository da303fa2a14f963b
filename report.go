package forecaster

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/accuracy"
	"github.com/aouyang1/go-traffic-forecaster/anomaly"
	"github.com/aouyang1/go-traffic-forecaster/export"
	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/growth"
	"github.com/aouyang1/go-traffic-forecaster/ingest"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/goccy/go-json"
)

// Report bundles every output of a pipeline run
type Report struct {
	RunID      string
	Horizon    int
	Confidence float64

	// Precision is the number of decimals values are displayed with
	Precision int

	History *timedataset.TimeDataset

	// Ingest is nil when the run started from an already validated series
	Ingest *ingest.Result

	Result    *forecast.Result
	Anomalies []anomaly.Record
	Accuracy  accuracy.Metrics
	Holdout   *BacktestResult
	Growth    []growth.Record
}

// Projected returns the forecast months rounded to the display precision
func (r *Report) Projected() []forecast.Point {
	res := make([]forecast.Point, len(r.Result.Projected))
	for i, p := range r.Result.Projected {
		res[i] = p.Round(r.Precision)
	}
	return res
}

type seriesPoint struct {
	T     time.Time `json:"date"`
	Value float64   `json:"value"`
}

type droppedRow struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

type ingestSummary struct {
	Dropped    []droppedRow `json:"dropped"`
	Duplicates int          `json:"duplicates"`
	Gaps       []time.Time  `json:"gaps"`
	Cadence    int          `json:"cadence_months"`
}

type reportJSON struct {
	RunID      string           `json:"run_id"`
	Horizon    int              `json:"horizon"`
	Confidence float64          `json:"confidence_level"`
	Precision  int              `json:"precision"`
	Series     []seriesPoint    `json:"series"`
	Ingest     *ingestSummary   `json:"ingest,omitempty"`
	Model      forecast.Summary `json:"model"`
	Fitted     []forecast.Point `json:"fitted"`
	Forecast   []forecast.Point `json:"forecast"`
	Anomalies  []anomaly.Record `json:"anomalies"`
	Accuracy   accuracy.Metrics `json:"accuracy"`
	Holdout    *BacktestResult  `json:"holdout,omitempty"`
	Growth     []growth.Record  `json:"growth"`
}

// MarshalJSON encodes the report with the forecast rounded to the display precision
func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		RunID:      r.RunID,
		Horizon:    r.Horizon,
		Confidence: r.Confidence,
		Precision:  r.Precision,
		Anomalies:  r.Anomalies,
		Accuracy:   r.Accuracy,
		Holdout:    r.Holdout,
		Growth:     r.Growth,
	}
	if out.Anomalies == nil {
		out.Anomalies = []anomaly.Record{}
	}
	for i := 0; i < r.History.Len(); i++ {
		out.Series = append(out.Series, seriesPoint{r.History.T[i], r.History.Y[i]})
	}
	if r.Ingest != nil {
		sum := &ingestSummary{
			Dropped:    make([]droppedRow, 0, len(r.Ingest.Dropped)),
			Duplicates: r.Ingest.Duplicates,
			Gaps:       r.Ingest.Gaps,
			Cadence:    r.Ingest.Cadence,
		}
		for _, d := range r.Ingest.Dropped {
			sum.Dropped = append(sum.Dropped, droppedRow{d.Index, d.Label, d.Reason()})
		}
		out.Ingest = sum
	}
	if r.Result != nil {
		out.Model = r.Result.Model.Summary()
		out.Fitted = r.Result.Fitted
		out.Forecast = r.Projected()
	}
	return json.Marshal(out)
}

// WriteCSV writes one of the export tables of the report
func (r *Report) WriteCSV(w io.Writer, table export.Table) error {
	switch table {
	case export.TableSeries:
		return export.WriteSeries(w, r.History, r.Precision)
	case export.TableForecast:
		return export.WriteForecast(w, r.Projected(), r.Precision)
	case export.TableAnomalies:
		return export.WriteAnomalies(w, r.Anomalies, r.Precision)
	case export.TableAccuracy:
		return export.WriteAccuracy(w, r.Accuracy)
	case export.TableGrowth:
		return export.WriteGrowth(w, r.Growth)
	}
	return fmt.Errorf("unknown table %q", table)
}

// TablePrint writes a human readable summary of the report
func (r *Report) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Run: %s\n", r.RunID); err != nil {
		return err
	}
	if err := r.tablePrintSeries(w); err != nil {
		return err
	}
	if err := r.Result.Model.TablePrint(w, "", "  "); err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tbl, "Forecast (%.0f%% interval):\n", r.Confidence*100)
	fmt.Fprintf(tbl, "  Date\tPoint\tLower\tUpper\t\n")
	for _, p := range r.Projected() {
		fmt.Fprintf(tbl, "  %s\t%s\t%s\t%s\t\n",
			p.T.Format("2006-01"),
			export.FormatFloat(p.Forecast, r.Precision),
			export.FormatFloat(p.Lower, r.Precision),
			export.FormatFloat(p.Upper, r.Precision))
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Anomalies: %d\n", len(r.Anomalies)); err != nil {
		return err
	}
	for _, a := range r.Anomalies {
		if _, err := fmt.Fprintf(w, "  %s %s (%+.2f sd)\n", a.T.Format("2006-01"), export.FormatFloat(a.Value, r.Precision), a.Score); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Accuracy:\n  MAPE: %.2f%%    RMSE: %.3f    MAE: %.3f\n", r.Accuracy.MAPE, r.Accuracy.RMSE, r.Accuracy.MAE); err != nil {
		return err
	}
	if r.Holdout != nil {
		if _, err := fmt.Fprintf(w, "Holdout (%d periods):\n  MAPE: %.2f%%    RMSE: %.3f    MAE: %.3f\n",
			r.Holdout.Holdout, r.Holdout.Metrics.MAPE, r.Holdout.Metrics.RMSE, r.Holdout.Metrics.MAE); err != nil {
			return err
		}
	}

	tbl = tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tbl, "Growth:\n")
	fmt.Fprintf(tbl, "  Date\tSegment\tGrowth\t\n")
	for _, g := range r.Growth {
		pct := export.Undefined
		if g.Pct != nil {
			pct = fmt.Sprintf("%.2f%%", *g.Pct)
		}
		fmt.Fprintf(tbl, "  %s\t%s\t%s\t\n", g.T.Format("2006-01"), g.Segment, pct)
	}
	return tbl.Flush()
}

func (r *Report) tablePrintSeries(w io.Writer) error {
	if r.History.Len() == 0 {
		_, err := fmt.Fprintf(w, "Series: empty\n")
		return err
	}
	if _, err := fmt.Fprintf(w, "Series: %d points from %s to %s\n",
		r.History.Len(),
		r.History.T[0].Format("2006-01"),
		r.History.T[r.History.Len()-1].Format("2006-01")); err != nil {
		return err
	}
	if r.Ingest == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "  Dropped: %d    Duplicates: %d    Gaps: %d\n",
		len(r.Ingest.Dropped), r.Ingest.Duplicates, len(r.Ingest.Gaps))
	return err
}
