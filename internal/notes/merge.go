package notes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felo/mailnotes/internal/render"
)

// ErrDuplicateAnchor signals a violated idempotence invariant: the same
// message anchor appears more than once in a note body. This should
// never happen and points at a bug upstream.
var ErrDuplicateAnchor = errors.New("message anchor duplicated across sections")

// Merge consolidates a rendered section into a note body. If the
// message was merged before (its anchor is already present) the body
// comes back unchanged, so reprocessing the same inbox is safe. The
// existing body is preserved byte for byte; the new section is appended
// after exactly one blank line.
func Merge(existingBody, section, messageID string) (string, error) {
	if strings.TrimSpace(messageID) == "" {
		return "", fmt.Errorf("%w: missing message id", render.ErrBadSection)
	}
	if err := render.ValidateSection(section); err != nil {
		return "", fmt.Errorf("refusing to merge: %w", err)
	}

	anchor := render.AnchorFor(messageID)
	switch n := strings.Count(existingBody, anchor); {
	case n == 1:
		return existingBody, nil
	case n > 1:
		return "", fmt.Errorf("%w: anchor for %q present %d times", ErrDuplicateAnchor, messageID, n)
	}

	if existingBody == "" {
		return section, nil
	}

	sep := "\n\n"
	if strings.HasSuffix(existingBody, "\n") {
		sep = "\n"
	}
	return existingBody + sep + section, nil
}
