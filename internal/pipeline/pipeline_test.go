package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recruitexport/internal/extract"
	"recruitexport/internal/luxid"
	"recruitexport/internal/models"
	"recruitexport/internal/pipeline"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListEvents(ctx context.Context) ([]models.EventSummary, error) {
	args := m.Called(ctx)
	if events, ok := args.Get(0).([]models.EventSummary); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFetcher) ListParticipants(ctx context.Context, url string) ([]models.Participant, error) {
	args := m.Called(ctx, url)
	if ps, ok := args.Get(0).([]models.Participant); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func newPipeline(f pipeline.Fetcher) *pipeline.Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.New(logger, f, extract.New(logger, extract.PolicyStrict))
}

func participant(id, raw string) models.Participant {
	return models.Participant{ID: id, Raw: json.RawMessage(raw)}
}

func TestRun_Scenario(t *testing.T) {
	f := &mockFetcher{}
	f.On("ListEvents", mock.Anything).Return([]models.EventSummary{{
		ID:              "E1",
		StartTime:       1736929800,
		EndTime:         1736933400,
		CustomFields:    json.RawMessage(`{"3333": {"value": {"k": {"value": "B2C"}}}}`),
		ParticipantsURL: "https://x/P1",
	}}, nil)
	f.On("ListParticipants", mock.Anything, "https://x/P1").Return([]models.Participant{
		participant("p1", `{"answers": {"firstname": {"answer": "Jo"}}, "privacy_answers": [], "will_attend": 1, "did_attend": 0}`),
	}, nil)

	report, err := newPipeline(f).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, []models.ParticipantRecord{{
		EventID:        "E1",
		EventStartTime: "01-15-2025 08:30:00",
		EventEndTime:   "01-15-2025 09:30:00",
		EventType:      "b2c",
		FirstName:      "Jo",
		WillAttend:     true,
	}}, report.Records)
	require.Len(t, report.Events, 1)
	require.Equal(t, 1, report.Events[0].Participants)
	f.AssertExpectations(t)
}

func TestRun_OrderAndSkips(t *testing.T) {
	f := &mockFetcher{}
	f.On("ListEvents", mock.Anything).Return([]models.EventSummary{
		{ID: "E2", ParticipantsURL: "https://x/P2"},
		{ID: "E0"},
		{ID: "E1", ParticipantsURL: "https://x/P1"},
	}, nil)
	f.On("ListParticipants", mock.Anything, "https://x/P2").Return([]models.Participant{
		participant("b", `{"answers": {"firstname": {"answer": "B"}}}`),
		participant("a", `{"answers": {"firstname": {"answer": "A"}}}`),
	}, nil)
	f.On("ListParticipants", mock.Anything, "https://x/P1").Return([]models.Participant{
		participant("c", `{"answers": {"firstname": {"answer": "C"}}}`),
	}, nil)

	report, err := newPipeline(f).Run(context.Background())
	require.NoError(t, err)

	var got []string
	for _, r := range report.Records {
		got = append(got, r.EventID+":"+r.FirstName)
	}
	require.Equal(t, []string{"E2:B", "E2:A", "E1:C"}, got)

	require.Len(t, report.Events, 3)
	require.True(t, report.Events[1].Skipped)
	require.Equal(t, extract.SentinelInvalid, report.Events[1].Context.Type)
	f.AssertNotCalled(t, "ListParticipants", mock.Anything, "")
}

func TestRun_MissingFieldsStillProduceRows(t *testing.T) {
	f := &mockFetcher{}
	f.On("ListEvents", mock.Anything).Return([]models.EventSummary{{ID: "E1", ParticipantsURL: "u"}}, nil)
	f.On("ListParticipants", mock.Anything, "u").Return([]models.Participant{
		participant("p1", `{}`),
		participant("p2", `{"answers": []}`),
	}, nil)

	report, err := newPipeline(f).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Records, 2)
	for _, r := range report.Records {
		require.Empty(t, r.FirstName)
		require.Empty(t, r.EmailAddress)
		require.False(t, r.WillAttend)
		require.False(t, r.DidAttend)
	}
}

func TestRun_EventsFailure(t *testing.T) {
	f := &mockFetcher{}
	fetchErr := &luxid.FetchError{Resource: luxid.ResourceEvents, StatusCode: 500}
	f.On("ListEvents", mock.Anything).Return(nil, fetchErr)

	report, err := newPipeline(f).Run(context.Background())
	require.Nil(t, report)
	require.ErrorIs(t, err, fetchErr)
}

func TestRun_ParticipantFailureAbortsRun(t *testing.T) {
	f := &mockFetcher{}
	f.On("ListEvents", mock.Anything).Return([]models.EventSummary{
		{ID: "E1", ParticipantsURL: "u1"},
		{ID: "E2", ParticipantsURL: "u2"},
		{ID: "E3", ParticipantsURL: "u3"},
	}, nil)
	f.On("ListParticipants", mock.Anything, "u1").Return([]models.Participant{participant("p", `{}`)}, nil)
	f.On("ListParticipants", mock.Anything, "u2").Return(nil, &luxid.FetchError{Resource: luxid.ResourceParticipants, URL: "u2", StatusCode: 500})

	report, err := newPipeline(f).Run(context.Background())
	require.Nil(t, report)

	var fetchErr *luxid.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, "u2", fetchErr.URL)
	require.Contains(t, err.Error(), "event E2")
	f.AssertNotCalled(t, "ListParticipants", mock.Anything, "u3")
}

func TestRun_MalformedParticipantAbortsRun(t *testing.T) {
	f := &mockFetcher{}
	f.On("ListEvents", mock.Anything).Return([]models.EventSummary{{ID: "E1", ParticipantsURL: "u"}}, nil)
	f.On("ListParticipants", mock.Anything, "u").Return([]models.Participant{participant("p", `{"answers": "x"}`)}, nil)

	_, err := newPipeline(f).Run(context.Background())
	require.True(t, errors.Is(err, extract.ErrMalformedParticipant))
}
