package render

import (
	"strings"

	"github.com/felo/mailnotes/internal/classify"
)

// linkFirst wraps the first case-insensitive occurrence of term in a
// [[...]] wikilink, preserving the casing found in the text. Occurrences
// already adjacent to link brackets are left alone. Repeated occurrences
// are not linked again.
func linkFirst(text, term string) string {
	if term == "" {
		return text
	}

	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		// Case mapping changed byte offsets; match exact case only
		lower = text
	}
	lterm := strings.ToLower(term)

	from := 0
	for {
		i := strings.Index(lower[from:], lterm)
		if i < 0 {
			return text
		}
		i += from
		end := i + len(lterm)

		if adjacentToLink(text, i, end) {
			from = end
			continue
		}
		return text[:i] + "[[" + text[i:end] + "]]" + text[end:]
	}
}

// adjacentToLink reports whether the range is directly preceded by "[["
// or followed by "]]"
func adjacentToLink(text string, start, end int) bool {
	if start >= 2 && text[start-2:start] == "[[" {
		return true
	}
	if end+2 <= len(text) && text[end:end+2] == "]]" {
		return true
	}
	return false
}

// linkParticipants rewrites addresses of internal participants to their
// [[First L]] wikilink form. Addresses of external participants and
// unknown addresses pass through untouched.
func linkParticipants(text string, participants []classify.Participant) string {
	for _, p := range participants {
		if !p.Internal || p.Address == "" || p.Display == "" {
			continue
		}
		text = replaceFold(text, p.Address, "[["+p.Display+"]]")
	}
	return text
}

// replaceFold replaces every case-insensitive occurrence of old with new
func replaceFold(text, old, new string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		return strings.ReplaceAll(text, old, new)
	}
	lold := strings.ToLower(old)

	var b strings.Builder
	from := 0
	for {
		i := strings.Index(lower[from:], lold)
		if i < 0 {
			b.WriteString(text[from:])
			return b.String()
		}
		i += from
		b.WriteString(text[from:i])
		b.WriteString(new)
		from = i + len(lold)
	}
}

// FormatPerson renders a participant for From/To lines: internal people
// become wikilinks, external ones keep their name and address
func FormatPerson(p classify.Participant) string {
	switch {
	case p.Internal:
		return "[[" + p.Display + "]]"
	case p.Name != "" && p.Address != "" && !strings.EqualFold(p.Name, p.Address):
		return p.Name + " (" + p.Address + ")"
	case p.Name != "":
		return p.Name
	case p.Address != "":
		return p.Address
	}
	return "Unknown"
}
