package extract

import "github.com/tidwall/gjson"

// AnswerKind enumerates the shapes a survey answer can take.
type AnswerKind int

const (
	AnswerAbsent AnswerKind = iota // no entry, no "answer" field, or null
	AnswerText                     // scalar: string, number or bool
	AnswerChoice                   // mapping of choice index -> {"choice": ...}
	AnswerOther                    // any other shape (arrays, non-object entries)
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerAbsent:
		return "absent"
	case AnswerText:
		return "text"
	case AnswerChoice:
		return "choice"
	default:
		return "other"
	}
}

// Answer is one decoded survey answer.
type Answer struct {
	Kind     AnswerKind
	Text     string // set for AnswerText
	Choice   string // first choice for AnswerChoice, "" when the mapping is empty
	Question string
}

// DecodeAnswer classifies one answers entry ({"answer": ..., "question": ...}).
func DecodeAnswer(entry gjson.Result) Answer {
	if !entry.Exists() || entry.Type == gjson.Null {
		return Answer{Kind: AnswerAbsent}
	}
	if !entry.IsObject() {
		return Answer{Kind: AnswerOther}
	}

	a := Answer{}
	if q := entry.Get("question"); q.Type == gjson.String {
		a.Question = q.String()
	}

	v := entry.Get("answer")
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		a.Kind = AnswerAbsent
	case v.IsObject():
		a.Kind = AnswerChoice
		if first, ok := firstValue(v); ok {
			if c := first.Get("choice"); c.Type == gjson.String {
				a.Choice = c.String()
			}
		}
	case v.IsArray():
		a.Kind = AnswerOther
	default:
		a.Kind = AnswerText
		a.Text = v.String()
	}
	return a
}

// firstValue returns the first member of an object in source order.
func firstValue(obj gjson.Result) (gjson.Result, bool) {
	var (
		first gjson.Result
		found bool
	)
	obj.ForEach(func(_, v gjson.Result) bool {
		first, found = v, true
		return false
	})
	return first, found
}

// truthy mirrors the loose truthiness the API relies on for attendance flags.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		_, ok := firstValue(v)
		return ok
	default:
		return false
	}
}
