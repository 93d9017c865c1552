package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"recruitexport/internal/pipeline"
)

// Content types of the files an export run produces.
const (
	ContentTypeCSV = "text/csv; charset=utf-8"
	ContentTypeICS = "text/calendar; charset=utf-8"
)

// Runner produces the records of one export run.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Publisher mirrors a finished export file to another destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, name, contentType string, data []byte) error
}

// Result summarises a successful export.
type Result struct {
	RunID   string
	Records int
	Events  int
	Message string
}

// Service runs the pipeline and persists its output. Runs are serialized.
type Service struct {
	logger     *slog.Logger
	runner     Runner
	csv        *FileSink
	ics        *FileSink // nil disables the calendar file
	publishers []Publisher
	now        func() time.Time
	mu         sync.Mutex
}

// NewService creates an export service writing the CSV to csvPath and, when
// icsPath is non-empty, the events calendar to icsPath.
func NewService(logger *slog.Logger, runner Runner, csvPath, icsPath string, publishers ...Publisher) *Service {
	s := &Service{
		logger:     logger,
		runner:     runner,
		csv:        NewFileSink(csvPath),
		publishers: publishers,
		now:        time.Now,
	}
	if icsPath != "" {
		s.ics = NewFileSink(icsPath)
	}
	return s
}

// CSV returns the sink holding the latest CSV export.
func (s *Service) CSV() *FileSink {
	return s.csv
}

// ICS returns the sink holding the latest events calendar, or nil.
func (s *Service) ICS() *FileSink {
	return s.ics
}

// Export runs the pipeline once and overwrites the export files. Nothing is
// written when the run fails or yields no records.
func (s *Service) Export(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	data, err := RenderCSV(report.Records)
	if err != nil {
		return nil, err
	}
	if err := s.csv.Write(data); err != nil {
		return nil, err
	}
	s.logger.Info("CSV written.", "path", s.csv.Path(), "records", len(report.Records), "runID", report.RunID)
	s.publish(ctx, filepath.Base(s.csv.Path()), ContentTypeCSV, data)

	if s.ics != nil {
		s.writeICS(ctx, report)
	}

	return &Result{
		RunID:   report.RunID,
		Records: len(report.Records),
		Events:  len(report.Events),
		Message: fmt.Sprintf("%s has been successfully created.", s.csv.Path()),
	}, nil
}

// writeICS writes the calendar companion file. Failures are logged only; the
// CSV is the export of record.
func (s *Service) writeICS(ctx context.Context, report *pipeline.Report) {
	data, err := RenderICS(report.Events, s.now())
	if err == nil {
		err = s.ics.Write(data)
	}
	if err != nil {
		s.logger.Error("Failed to write events calendar", "path", s.ics.Path(), "error", err)
		return
	}
	s.publish(ctx, filepath.Base(s.ics.Path()), ContentTypeICS, data)
}

// publish mirrors a file to every publisher, continuing past failures.
func (s *Service) publish(ctx context.Context, name, contentType string, data []byte) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, name, contentType, data); err != nil {
			s.logger.Error("Failed to publish export", "publisher", p.Name(), "file", name, "error", err)
			continue
		}
		s.logger.Info("Published export.", "publisher", p.Name(), "file", name)
	}
}
