package export

import (
	"errors"
	"fmt"
)

// ErrNoRecords is returned when an export run produced nothing to write.
var ErrNoRecords = errors.New("no data to write")

// ExportError reports a failure to produce or persist an export file.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export failed: %v", e.Err)
	}
	return fmt.Sprintf("error writing %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
