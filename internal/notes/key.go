package notes

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	replyPrefixRe   = regexp.MustCompile(`(?i)^\s*(re|fw|fwd|aw|wg):\s*`)
	bracketPrefixRe = regexp.MustCompile(`^\s*\[[^\]]*\]\s*`)
	forbiddenFileRe = regexp.MustCompile(`[\\/:*?"<>|]`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// NormalizeKey derives the stable note key for a subject: surrounding
// whitespace is trimmed, internal whitespace runs collapse to single
// spaces, and the result is case-folded. Two subjects with the same key
// consolidate into the same note.
func NormalizeKey(subject string) string {
	folded := cases.Fold().String(subject)
	return strings.Join(strings.Fields(folded), " ")
}

// StripReplyPrefixes removes leading reply and forward markers
// ("Re:", "FW:", "Fwd:", "AW:", "WG:", repeated in any mix) plus one
// leading [bracketed] tag. Whether this runs at all is the caller's
// decision; the resolver never strips on its own.
func StripReplyPrefixes(subject string) string {
	cleaned := subject
	for {
		next := replyPrefixRe.ReplaceAllString(cleaned, "")
		if next == cleaned {
			break
		}
		cleaned = next
	}
	cleaned = bracketPrefixRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// SanitizeFileName makes a note key usable as a file name: characters
// that are unsafe on common filesystems become dashes, whitespace runs
// collapse, and the result is capped at 180 characters.
func SanitizeFileName(name string) string {
	cleaned := forbiddenFileRe.ReplaceAllString(name, "-")
	cleaned = strings.TrimSpace(spaceRunRe.ReplaceAllString(cleaned, " "))

	runes := []rune(cleaned)
	if len(runes) > 180 {
		cleaned = string(runes[:180])
	}
	return cleaned
}
