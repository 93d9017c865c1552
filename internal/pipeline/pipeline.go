package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"recruitexport/internal/extract"
	"recruitexport/internal/models"
)

var tracer = otel.Tracer("recruitexport/pipeline")

// Fetcher lists events and the participants behind an event's URL.
type Fetcher interface {
	ListEvents(ctx context.Context) ([]models.EventSummary, error)
	ListParticipants(ctx context.Context, participantsURL string) ([]models.Participant, error)
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID   string
	Events  []models.EventResult
	Records []models.ParticipantRecord
}

// Pipeline drives the fetchers and the extractor over every event.
type Pipeline struct {
	logger    *slog.Logger
	fetcher   Fetcher
	extractor *extract.Extractor
}

// New creates a new Pipeline.
func New(logger *slog.Logger, fetcher Fetcher, extractor *extract.Extractor) *Pipeline {
	return &Pipeline{
		logger:    logger,
		fetcher:   fetcher,
		extractor: extractor,
	}
}

// Run performs a full export cycle. Events are processed sequentially in the
// order returned; participants keep their source order within an event. Any
// fetch or structural error aborts the run and no records are returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}
	logger := p.logger.With("runID", report.RunID)

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("export.run_id", report.RunID))

	logger.Info("Starting export run.")

	events, err := p.fetcher.ListEvents(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	logger.Info("Fetched all events.", "count", len(events))

	for _, ev := range events {
		result, records, err := p.processEvent(ctx, logger, ev)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		report.Events = append(report.Events, result)
		report.Records = append(report.Records, records...)
	}

	span.SetAttributes(attribute.Int("export.records", len(report.Records)))
	logger.Info("Export run finished.", "events", len(report.Events), "records", len(report.Records))
	return report, nil
}

// processEvent flattens the participants of a single event.
func (p *Pipeline) processEvent(ctx context.Context, logger *slog.Logger, ev models.EventSummary) (models.EventResult, []models.ParticipantRecord, error) {
	evCtx := p.extractor.EventContext(ev)
	result := models.EventResult{Summary: ev, Context: evCtx}

	if !ev.HasParticipants() {
		logger.Info("No participants URL for event, skipping.", "eventID", ev.ID)
		result.Skipped = true
		return result, nil, nil
	}

	logger.Debug("Processing event", "eventID", ev.ID, "url", ev.ParticipantsURL, "eventType", evCtx.Type)

	participants, err := p.fetcher.ListParticipants(ctx, ev.ParticipantsURL)
	if err != nil {
		return result, nil, err
	}

	records := make([]models.ParticipantRecord, 0, len(participants))
	for _, participant := range participants {
		rec, err := p.extractor.Flatten(evCtx, participant)
		if err != nil {
			return result, nil, err
		}
		records = append(records, rec)
	}

	result.Participants = len(records)
	logger.Info("Participants processed.", "eventID", ev.ID, "count", len(records))
	return result, records, nil
}
