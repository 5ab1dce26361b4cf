package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when a summary fails shape validation
var ErrMalformed = errors.New("summary has no usable content")

// Summary is the structured digest of a single email
type Summary struct {
	Overview  string   // one-paragraph overview, may be empty
	KeyPoints []string // ordered key points
	Context   []string // background and references
	Tasks     []string // action items
}

// Parse decodes a summarizer JSON payload into a normalized Summary
func Parse(raw []byte) (Summary, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Summary{}, fmt.Errorf("failed to decode summary payload: %w", err)
	}
	return FromPayload(payload), nil
}

// FromPayload normalizes a decoded payload into a Summary. Summarizer
// output is not trusted: strings are coerced into single-element lists,
// non-string list items are dropped, and items are trimmed. A missing
// overview is synthesized from the leading key points.
func FromPayload(payload map[string]any) Summary {
	s := Summary{
		Overview:  overviewText(payload["summary"]),
		KeyPoints: stringList(payload["key_points"]),
		Context:   stringList(payload["context_notes"]),
		Tasks:     stringList(payload["todos"]),
	}

	// Older prompt versions used "follow_ups" for action items
	if len(s.Tasks) == 0 {
		s.Tasks = stringList(payload["follow_ups"])
	}

	if s.Overview == "" && len(s.KeyPoints) > 0 {
		lead := s.KeyPoints
		if len(lead) > 2 {
			lead = lead[:2]
		}
		s.Overview = strings.Join(lead, "; ")
	}
	if s.Overview == "" && !s.Empty() {
		s.Overview = "(No summary returned)"
	}

	return s
}

// Empty reports whether the summary carries no content at all
func (s Summary) Empty() bool {
	return s.Overview == "" && len(s.KeyPoints) == 0 && len(s.Context) == 0 && len(s.Tasks) == 0
}

// Validate returns ErrMalformed for summaries with no content
func (s Summary) Validate() error {
	if s.Empty() {
		return ErrMalformed
	}
	return nil
}

// stringList coerces a payload value into a list of trimmed,
// non-empty strings
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		var out []string
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// overviewText coerces the overview field, joining list values
func overviewText(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			s := strings.TrimSpace(fmt.Sprint(item))
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}
