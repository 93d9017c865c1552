package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/tidwall/gjson"
)

func eventTypeCustom(value string) json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"3333": map[string]any{"value": map[string]any{"k": map[string]any{"value": value}}},
	})
	return b
}

// TestEventTypeTotal checks that strict extraction always lands in the
// allowed set and is stable across calls.
func TestEventTypeTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	x := New(discardLogger(), PolicyStrict)

	properties.Property("strict event type is one of b2b, b2c, Invalid", prop.ForAll(
		func(value string) bool {
			got := x.EventType(eventTypeCustom(value))
			if got != x.EventType(eventTypeCustom(value)) {
				return false
			}
			switch got {
			case "b2b", "b2c":
				return strings.EqualFold(value, got)
			case SentinelInvalid:
				return !strings.EqualFold(value, "b2b") && !strings.EqualFold(value, "b2c")
			default:
				return false
			}
		},
		gen.OneGenOf(
			gen.OneConstOf("b2b", "B2B", "b2C", "B2c", "b2c", "Invalid", ""),
			gen.AnyString(),
		),
	))

	properties.Property("arbitrary custom payloads never escape the allowed set", prop.ForAll(
		func(raw string) bool {
			got := x.EventType(json.RawMessage(raw))
			return got == "b2b" || got == "b2c" || got == SentinelInvalid
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestMarketingConsentProperty checks consent is detected iff an opt-in entry
// for policy 7295 is present.
func TestMarketingConsentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	type entry struct {
		PolicyID int `json:"privacy_policy_id"`
		Answer   int `json:"answer"`
	}

	properties.Property("consent iff policy 7295 answered 1", prop.ForAll(
		func(ids []int, answers []int) bool {
			n := min(len(ids), len(answers))
			entries := make([]entry, 0, n)
			want := false
			for i := 0; i < n; i++ {
				entries = append(entries, entry{PolicyID: ids[i], Answer: answers[i]})
				if ids[i] == marketingPolicyID && answers[i] == 1 {
					want = true
				}
			}
			b, _ := json.Marshal(entries)
			return MarketingConsent(gjson.ParseBytes(b)) == want
		},
		gen.SliceOf(gen.OneConstOf(7295, 7296, 1, 0)),
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}
