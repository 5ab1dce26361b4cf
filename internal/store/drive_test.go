package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteFileName(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "plain key",
			key:      "launch plan",
			expected: "launch plan.md",
		},
		{
			name:     "forbidden characters replaced",
			key:      `q3: budget/review?`,
			expected: "q3- budget-review-.md",
		},
		{
			name:     "whitespace collapsed",
			key:      "launch   plan",
			expected: "launch plan.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, noteFileName(tt.key))
		})
	}
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `rock \'n\' roll.md`, escapeQuery(`rock 'n' roll.md`))
	assert.Equal(t, "plain", escapeQuery("plain"))
}
