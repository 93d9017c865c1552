// Package extract flattens nested event and participant JSON into
// ParticipantRecords. Nothing here performs I/O; anomalies degrade to
// defaults and are logged.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"recruitexport/internal/models"
)

// Policy selects how event types are validated.
type Policy string

const (
	// PolicyStrict accepts only b2b and b2c (normalized to lowercase).
	PolicyStrict Policy = "strict"
	// PolicyPermissive accepts any non-empty value verbatim.
	PolicyPermissive Policy = "permissive"
)

// Sentinels returned when no usable event type is found.
const (
	SentinelInvalid = "Invalid"
	SentinelUnknown = "Unknown"
)

const (
	eventTypeField     = "3333"
	newsletterKey      = "98765432"
	newsletterQuestion = "Order newsletter"
	marketingPolicyID  = 7295

	timestampLayout = "01-02-2006 15:04:05"
)

var allowedEventTypes = map[string]bool{"b2b": true, "b2c": true}

// ErrMalformedParticipant is returned when a participant or its answers are
// not key-value shaped.
var ErrMalformedParticipant = errors.New("malformed participant")

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyStrict, PolicyPermissive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown event type policy %q", s)
	}
}

// Extractor holds the event type policy and the logger used for anomalies.
type Extractor struct {
	policy Policy
	logger *slog.Logger
}

// New creates an Extractor. An empty policy means PolicyStrict.
func New(logger *slog.Logger, policy Policy) *Extractor {
	if policy == "" {
		policy = PolicyStrict
	}
	return &Extractor{policy: policy, logger: logger}
}

// Sentinel is the value EventType returns when no valid type is present.
func (x *Extractor) Sentinel() string {
	if x.policy == PolicyPermissive {
		return SentinelUnknown
	}
	return SentinelInvalid
}

// FormatTimestamp renders Unix seconds as MM-DD-YYYY HH:MM:SS in UTC.
func FormatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(timestampLayout)
}

// EventContext formats the per-event values once so they can be copied into
// every participant of the event.
func (x *Extractor) EventContext(ev models.EventSummary) models.EventContext {
	return models.EventContext{
		ID:        ev.ID,
		StartTime: FormatTimestamp(ev.StartTime),
		EndTime:   FormatTimestamp(ev.EndTime),
		Type:      x.EventType(ev.CustomFields),
	}
}

// EventType reads custom field 3333, a single-select answer keyed by an
// internal choice id. Only the first choice is consulted. It never fails.
func (x *Extractor) EventType(customFields json.RawMessage) string {
	if len(customFields) == 0 || !gjson.ValidBytes(customFields) {
		return x.Sentinel()
	}
	choices := gjson.GetBytes(customFields, eventTypeField+".value")
	if !choices.IsObject() {
		return x.Sentinel()
	}
	first, ok := firstValue(choices)
	if !ok {
		return x.Sentinel()
	}

	v := first.Get("value")
	if v.Type != gjson.String {
		x.logger.Warn("Unexpected event type shape, using default.", "raw", first.Raw, "default", x.Sentinel())
		return x.Sentinel()
	}
	raw := v.String()

	if x.policy == PolicyPermissive {
		if raw == "" {
			return x.Sentinel()
		}
		return raw
	}

	lowered := cases.Lower(language.Und).String(raw)
	if allowedEventTypes[lowered] {
		return lowered
	}
	x.logger.Warn("Unexpected event type, using default.", "eventType", raw, "default", x.Sentinel())
	return x.Sentinel()
}

// OrderNewsletter resolves the newsletter choice. The well-known answer key is
// tried first, then every answer whose question text matches, in source
// order. The first entry carrying a non-empty choice wins; "" otherwise.
func (x *Extractor) OrderNewsletter(answers gjson.Result) string {
	if !answers.IsObject() {
		return ""
	}

	if choice, ok := x.newsletterChoice(answers.Get(newsletterKey)); ok {
		return choice
	}

	var choice string
	answers.ForEach(func(k, v gjson.Result) bool {
		if k.String() == newsletterKey {
			return true
		}
		if q := v.Get("question"); q.Type != gjson.String || q.Str != newsletterQuestion {
			return true
		}
		c, ok := x.newsletterChoice(v)
		if ok {
			choice = c
		}
		return !ok
	})
	return choice
}

// newsletterChoice returns the first choice of a newsletter answer entry.
func (x *Extractor) newsletterChoice(entry gjson.Result) (string, bool) {
	a := DecodeAnswer(entry)
	switch a.Kind {
	case AnswerChoice:
		return a.Choice, a.Choice != ""
	case AnswerAbsent:
		return "", false
	default:
		x.logger.Warn("Unexpected newsletter answer shape, skipping.", "kind", a.Kind.String())
		return "", false
	}
}

// MarketingConsent reports whether any privacy answer opts in to policy 7295.
func MarketingConsent(privacyAnswers gjson.Result) bool {
	if !privacyAnswers.IsArray() {
		return false
	}
	consent := false
	privacyAnswers.ForEach(func(_, v gjson.Result) bool {
		id := v.Get("privacy_policy_id")
		if id.Type != gjson.Number || id.Num != marketingPolicyID {
			return true
		}
		ans := v.Get("answer")
		if (ans.Type == gjson.Number && ans.Num == 1) || ans.Type == gjson.True {
			consent = true
			return false
		}
		return true
	})
	return consent
}

// Flatten builds the record for one participant of ev. Missing optional
// fields default to "" or false; only a participant, or an answers value,
// that is not key-value shaped is an error.
func (x *Extractor) Flatten(ev models.EventContext, p models.Participant) (models.ParticipantRecord, error) {
	if !gjson.ValidBytes(p.Raw) {
		return models.ParticipantRecord{}, fmt.Errorf("%w: participant %s is not valid JSON", ErrMalformedParticipant, p.ID)
	}
	root := gjson.ParseBytes(p.Raw)
	if !root.IsObject() {
		return models.ParticipantRecord{}, fmt.Errorf("%w: participant %s is not an object", ErrMalformedParticipant, p.ID)
	}

	answers := root.Get("answers")
	switch {
	case !answers.Exists(), answers.Type == gjson.Null, answers.IsObject():
	case answers.IsArray() && len(answers.Array()) == 0:
		// Empty mappings are sometimes serialized as [].
		answers = gjson.Result{}
	default:
		return models.ParticipantRecord{}, fmt.Errorf("%w: participant %s answers are not a mapping", ErrMalformedParticipant, p.ID)
	}

	return models.ParticipantRecord{
		EventID:          ev.ID,
		EventStartTime:   ev.StartTime,
		EventEndTime:     ev.EndTime,
		EventType:        ev.Type,
		FirstName:        textAnswer(answers, "firstname"),
		LastName:         textAnswer(answers, "lastname"),
		EmailAddress:     textAnswer(answers, "email"),
		WillAttend:       truthy(root.Get("will_attend")),
		DidAttend:        truthy(root.Get("did_attend")),
		MarketingConsent: MarketingConsent(root.Get("privacy_answers")),
		OrderNewsletter:  x.OrderNewsletter(answers),
	}, nil
}

func textAnswer(answers gjson.Result, key string) string {
	if !answers.IsObject() {
		return ""
	}
	a := DecodeAnswer(answers.Get(key))
	if a.Kind != AnswerText {
		return ""
	}
	return a.Text
}
