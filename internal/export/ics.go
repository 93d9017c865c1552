package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"recruitexport/internal/models"
)

// eventNamespace scopes the deterministic UIDs of exported events.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:recruitexport:event"))

// RenderICS renders the events of a run as an iCalendar feed, one VEVENT per
// event, in run order. UIDs are stable across runs for the same event id.
func RenderICS(events []models.EventResult, stamp time.Time) ([]byte, error) {
	if len(events) == 0 {
		return nil, &ExportError{Err: fmt.Errorf("no events to write")}
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//recruitexport//EN")
	for _, ev := range events {
		cal.Children = append(cal.Children, toICal(ev, stamp))
	}

	buf := &bytes.Buffer{}
	if err := ical.NewEncoder(buf).Encode(cal); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("failed to encode events to iCal format: %w", err)}
	}
	return buf.Bytes(), nil
}

// EventUID returns the iCalendar UID used for an event id.
func EventUID(eventID string) string {
	return uuid.NewSHA1(eventNamespace, []byte(eventID)).String()
}

// toICal converts one exported event to a VEVENT component.
func toICal(ev models.EventResult, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, EventUID(ev.Summary.ID))
	ve.Props.SetText(ical.PropSummary, fmt.Sprintf("Event %s (%s)", ev.Summary.ID, ev.Context.Type))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, time.Unix(ev.Summary.StartTime, 0).UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, time.Unix(ev.Summary.EndTime, 0).UTC())
	ve.Props.SetText(ical.PropCategories, ev.Context.Type)

	if ev.Skipped {
		ve.Props.SetText(ical.PropDescription, "No registration page yet.")
	} else {
		ve.Props.SetText(ical.PropDescription, fmt.Sprintf("Participants: %d", ev.Participants))
	}
	if ev.Summary.ParticipantsURL != "" {
		p := ical.NewProp(ical.PropURL)
		p.Value = ev.Summary.ParticipantsURL
		ve.Props.Set(p)
	}
	return ve
}
