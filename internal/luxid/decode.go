package luxid

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"recruitexport/internal/models"
)

// decodeEvents reads the events list: an array of single-key objects
// {"<eventId>": {...}}. Entry order is preserved.
func decodeEvents(body []byte) ([]models.EventSummary, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: events is not a list", ErrMalformedResponse)
	}

	var (
		events []models.EventSummary
		err    error
	)
	root.ForEach(func(_, item gjson.Result) bool {
		var ev models.EventSummary
		ev, err = decodeEvent(item)
		if err != nil {
			err = fmt.Errorf("event entry %d: %w", len(events), err)
			return false
		}
		events = append(events, ev)
		return true
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func decodeEvent(item gjson.Result) (models.EventSummary, error) {
	if !item.IsObject() {
		return models.EventSummary{}, fmt.Errorf("%w: entry is not an object", ErrMalformedResponse)
	}

	var (
		id    string
		data  gjson.Result
		count int
	)
	item.ForEach(func(k, v gjson.Result) bool {
		count++
		id, data = k.String(), v
		return true
	})
	if count != 1 {
		return models.EventSummary{}, fmt.Errorf("%w: entry has %d keys, want 1", ErrMalformedResponse, count)
	}
	if !data.IsObject() {
		return models.EventSummary{}, fmt.Errorf("%w: event %s is not an object", ErrMalformedResponse, id)
	}

	start, end := data.Get("start_time"), data.Get("end_time")
	if start.Type != gjson.Number || end.Type != gjson.Number {
		return models.EventSummary{}, fmt.Errorf("%w: event %s has no numeric start_time/end_time", ErrMalformedResponse, id)
	}

	ev := models.EventSummary{
		ID:        id,
		StartTime: start.Int(),
		EndTime:   end.Int(),
	}
	if custom := data.Get("custom"); custom.IsObject() {
		ev.CustomFields = json.RawMessage(custom.Raw)
	}
	if u := data.Get("participants_url"); u.Type == gjson.String {
		ev.ParticipantsURL = u.String()
	}
	return ev, nil
}

// decodeParticipants reads a participantId -> participant mapping in source
// order. An empty JSON array is accepted as an empty mapping.
func decodeParticipants(body []byte) ([]models.Participant, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if root.IsArray() && len(root.Array()) == 0 {
		return nil, nil
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: participants is not an object", ErrMalformedResponse)
	}

	var participants []models.Participant
	root.ForEach(func(k, v gjson.Result) bool {
		participants = append(participants, models.Participant{
			ID:  k.String(),
			Raw: json.RawMessage(v.Raw),
		})
		return true
	})
	return participants, nil
}
