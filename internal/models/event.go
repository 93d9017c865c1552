package models

import "encoding/json"

// EventSummary represents one recruitment event as returned by the remote API.
// It is kept close to the wire shape so extraction can work on the raw custom fields.
type EventSummary struct {
	ID              string          // Event id, the single key of the events list entry
	StartTime       int64           // Unix seconds
	EndTime         int64           // Unix seconds
	CustomFields    json.RawMessage // The raw "custom" object, ordered as received
	ParticipantsURL string          // Fully qualified participants endpoint, empty when absent
}

// HasParticipants reports whether the event exposes a participants endpoint.
func (e EventSummary) HasParticipants() bool {
	return e.ParticipantsURL != ""
}

// Participant is one entry of a participants response, in the order it was returned.
type Participant struct {
	ID  string
	Raw json.RawMessage
}

// EventContext carries the per-event values that are copied into every participant row.
// Times are formatted once per event.
type EventContext struct {
	ID        string
	StartTime string
	EndTime   string
	Type      string
}

// EventResult summarises how one event was handled during an export run.
type EventResult struct {
	Summary      EventSummary
	Context      EventContext
	Participants int  // rows produced for the event
	Skipped      bool // true when the event had no participants URL
}
