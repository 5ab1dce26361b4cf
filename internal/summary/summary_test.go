package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_WellFormed tests decoding a complete payload
func TestParse_WellFormed(t *testing.T) {
	raw := []byte(`{
		"summary": "Launch timeline agreed.",
		"key_points": ["Ship by Friday", "QA starts Wednesday"],
		"context_notes": ["Decision made in planning call"],
		"todos": ["Draft timeline"]
	}`)

	s, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "Launch timeline agreed.", s.Overview)
	assert.Equal(t, []string{"Ship by Friday", "QA starts Wednesday"}, s.KeyPoints)
	assert.Equal(t, []string{"Decision made in planning call"}, s.Context)
	assert.Equal(t, []string{"Draft timeline"}, s.Tasks)
	assert.NoError(t, s.Validate())
}

// TestParse_InvalidJSON tests the error path for undecodable payloads
func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte("not json at all"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode summary payload")
}

// TestFromPayload_Coercions tests the tolerant normalization rules
func TestFromPayload_Coercions(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		expected Summary
	}{
		{
			name: "string coerced to single-element list",
			payload: map[string]any{
				"summary":    "ok",
				"key_points": "Only one point",
			},
			expected: Summary{Overview: "ok", KeyPoints: []string{"Only one point"}},
		},
		{
			name: "non-string items dropped, strings trimmed",
			payload: map[string]any{
				"summary":    "ok",
				"key_points": []any{"  kept  ", 42, nil, "", "also kept"},
			},
			expected: Summary{Overview: "ok", KeyPoints: []string{"kept", "also kept"}},
		},
		{
			name: "follow_ups used when todos missing",
			payload: map[string]any{
				"summary":    "ok",
				"follow_ups": []any{"Chase approvals"},
			},
			expected: Summary{Overview: "ok", Tasks: []string{"Chase approvals"}},
		},
		{
			name: "todos win over follow_ups",
			payload: map[string]any{
				"summary":    "ok",
				"todos":      []any{"real"},
				"follow_ups": []any{"legacy"},
			},
			expected: Summary{Overview: "ok", Tasks: []string{"real"}},
		},
		{
			name: "overview list joined",
			payload: map[string]any{
				"summary": []any{"Part one.", "Part two."},
			},
			expected: Summary{Overview: "Part one. Part two."},
		},
		{
			name: "missing overview synthesized from first two key points",
			payload: map[string]any{
				"key_points": []any{"A", "B", "C"},
			},
			expected: Summary{Overview: "A; B", KeyPoints: []string{"A", "B", "C"}},
		},
		{
			name: "placeholder overview when only tasks exist",
			payload: map[string]any{
				"todos": []any{"Do the thing"},
			},
			expected: Summary{Overview: "(No summary returned)", Tasks: []string{"Do the thing"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromPayload(tt.payload))
		})
	}
}

// TestValidate_Empty tests that contentless summaries are rejected
func TestValidate_Empty(t *testing.T) {
	var s Summary
	assert.ErrorIs(t, s.Validate(), ErrMalformed)

	empty := FromPayload(map[string]any{})
	assert.True(t, empty.Empty())
	assert.ErrorIs(t, empty.Validate(), ErrMalformed)

	ok := FromPayload(map[string]any{"summary": "something"})
	assert.NoError(t, ok.Validate())
}
