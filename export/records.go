package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/aouyang1/go-traffic-forecaster/ingest"
)

// ReadRecords reads an uploaded table taking the first column as the month label and the
// second as the value. The first row is a header and is skipped. Rows missing the value
// column are kept with a blank value so validation reports them.
func ReadRecords(r io.Reader) ([]ingest.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("unable to read header, %w", err)
	}

	var records []ingest.Record
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read line %d, %w", line, err)
		}

		var label, value string
		if len(rec) > 0 {
			label = rec[0]
		}
		if len(rec) > 1 {
			value = rec[1]
		}
		records = append(records, ingest.Record{Label: label, Value: value})
	}
	return records, nil
}
