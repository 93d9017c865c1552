// Package export renders export runs as CSV and iCalendar files, writes them
// to their fixed local paths and mirrors them to optional publishers.
package export

import (
	"bytes"
	"encoding/csv"

	"recruitexport/internal/models"
)

// RenderCSV writes the header row followed by one row per record, in order.
func RenderCSV(records []models.ParticipantRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, &ExportError{Err: ErrNoRecords}
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(models.CSVHeader); err != nil {
		return nil, &ExportError{Err: err}
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return nil, &ExportError{Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &ExportError{Err: err}
	}
	return buf.Bytes(), nil
}
