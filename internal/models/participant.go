package models

import "strconv"

// CSVHeader is the fixed column order of the export.
var CSVHeader = []string{
	"eventId", "eventStartTime", "eventEndTime", "eventType",
	"firstName", "lastName", "emailAddress", "willAttend",
	"didAttend", "marketingConsent", "orderNewsletter",
}

// ParticipantRecord is the flattened, CSV-ready view of one participant.
// Every field has a usable zero value; nothing is ever left unset.
type ParticipantRecord struct {
	EventID          string
	EventStartTime   string // MM-DD-YYYY HH:MM:SS, UTC
	EventEndTime     string
	EventType        string
	FirstName        string
	LastName         string
	EmailAddress     string
	WillAttend       bool
	DidAttend        bool
	MarketingConsent bool
	OrderNewsletter  string
}

// Row renders the record in CSVHeader order. Booleans use their textual form.
func (r ParticipantRecord) Row() []string {
	return []string{
		r.EventID,
		r.EventStartTime,
		r.EventEndTime,
		r.EventType,
		r.FirstName,
		r.LastName,
		r.EmailAddress,
		strconv.FormatBool(r.WillAttend),
		strconv.FormatBool(r.DidAttend),
		strconv.FormatBool(r.MarketingConsent),
		r.OrderNewsletter,
	}
}
