package render

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/felo/mailnotes/internal/classify"
	"github.com/felo/mailnotes/internal/summary"
)

// ErrBadSection is returned when section text fails shape validation
var ErrBadSection = errors.New("section failed shape validation")

const (
	anchorPrefix = "<!-- msg-id: "
	anchorSuffix = " -->"
	tagsLine     = "  tags:: email"
)

// dateLineRe matches the wiki date heading that opens every section
var dateLineRe = regexp.MustCompile(`^- \[\[[^\]]+\]\]$`)

// Renderer turns structured summaries into Logseq Markdown sections
type Renderer struct {
	projects []string
}

// New creates a renderer for the given project name list. Longer names
// are matched first so "Atlas Mobile" is not split by a link on "Atlas".
func New(projects []string) *Renderer {
	cleaned := make([]string, 0, len(projects))
	for _, p := range projects {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i]) > len(cleaned[j])
	})
	return &Renderer{projects: cleaned}
}

// Metadata carries the email fields a section is rendered from
type Metadata struct {
	MessageID  string
	Subject    string
	Received   time.Time
	Sender     classify.Participant
	Recipients []classify.Participant
}

// Section renders one email's summary as a Logseq outline section:
// a wiki date heading for the received date, a tags property, the
// email metadata, and the Key Points / Context / Tasks bullets. The
// three list bullets are always present, even when empty, and the
// section ends with an invisible message-id anchor used by the merger.
func (r *Renderer) Section(s summary.Summary, m Metadata) (string, error) {
	if m.MessageID == "" {
		return "", fmt.Errorf("%w: message id is required", ErrBadSection)
	}
	if m.Received.IsZero() {
		return "", fmt.Errorf("%w: received time is required", ErrBadSection)
	}

	participants := make([]classify.Participant, 0, len(m.Recipients)+1)
	participants = append(participants, m.Sender)
	participants = append(participants, m.Recipients...)

	var b strings.Builder
	b.WriteString("- " + DateLink(m.Received) + "\n")
	b.WriteString(tagsLine + "\n")

	if m.Subject != "" {
		b.WriteString("\t- Subject: " + m.Subject + "\n")
	}
	if m.Sender.Address != "" || m.Sender.Name != "" {
		b.WriteString("\t- From: " + FormatPerson(m.Sender) + "\n")
	}
	if len(m.Recipients) > 0 {
		names := make([]string, len(m.Recipients))
		for i, p := range m.Recipients {
			names[i] = FormatPerson(p)
		}
		b.WriteString("\t- To: " + strings.Join(names, ", ") + "\n")
	}
	b.WriteString("\t- Received: " + m.Received.Format(time.RFC3339) + "\n")

	if s.Overview != "" {
		b.WriteString("\t- **Summary:** " + r.linkProjects(s.Overview) + "\n")
	}

	b.WriteString("\t- **Key Points:**\n")
	for _, point := range s.KeyPoints {
		b.WriteString("\t\t- " + r.linkProjects(point) + "\n")
	}

	b.WriteString("\t- **Context:**\n")
	for _, note := range s.Context {
		b.WriteString("\t\t- " + linkParticipants(note, participants) + "\n")
	}

	b.WriteString("\t- **Tasks:**\n")
	for _, task := range s.Tasks {
		b.WriteString("\t\t- TODO " + stripTaskMarker(task) + "\n")
	}

	b.WriteString(AnchorFor(m.MessageID) + "\n")

	out := b.String()
	if err := ValidateSection(out); err != nil {
		return "", err
	}
	return out, nil
}

// linkProjects injects a wikilink for the first occurrence of each
// configured project name
func (r *Renderer) linkProjects(text string) string {
	for _, p := range r.projects {
		text = linkFirst(text, p)
	}
	return text
}

// stripTaskMarker removes a leading todo marker the summarizer may have
// added, so tasks are not rendered as "TODO TODO ..."
func stripTaskMarker(s string) string {
	t := strings.TrimSpace(s)
	if len(t) < 4 || !strings.EqualFold(t[:4], "todo") {
		return t
	}
	rest := t[4:]
	if rest == "" {
		return ""
	}
	switch rest[0] {
	case ' ', '\t', ':':
		return strings.TrimSpace(strings.TrimLeft(rest, " \t:"))
	}
	return t
}

// AnchorFor builds the invisible anchor comment that marks a message as
// merged into a note. The same function is used when rendering and when
// scanning, so the two sides can never disagree.
func AnchorFor(messageID string) string {
	id := strings.Join(strings.Fields(messageID), "")
	// "-->" inside the id would terminate the comment early
	id = strings.ReplaceAll(id, "-->", "")
	return anchorPrefix + id + anchorSuffix
}

// ValidateSection checks the structural shape every section must have:
// date heading, tags property, the three list bullets in order, and a
// trailing anchor
func ValidateSection(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty section", ErrBadSection)
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) < 6 {
		return fmt.Errorf("%w: too short (%d lines)", ErrBadSection, len(lines))
	}

	if !dateLineRe.MatchString(lines[0]) {
		return fmt.Errorf("%w: missing date heading", ErrBadSection)
	}
	if lines[1] != tagsLine {
		return fmt.Errorf("%w: missing tags property", ErrBadSection)
	}

	keyPoints := indexOfLine(lines, "\t- **Key Points:**")
	context := indexOfLine(lines, "\t- **Context:**")
	tasks := indexOfLine(lines, "\t- **Tasks:**")
	if keyPoints < 0 || context < 0 || tasks < 0 {
		return fmt.Errorf("%w: missing list bullets", ErrBadSection)
	}
	if !(keyPoints < context && context < tasks) {
		return fmt.Errorf("%w: list bullets out of order", ErrBadSection)
	}

	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, anchorPrefix) || !strings.HasSuffix(last, anchorSuffix) {
		return fmt.Errorf("%w: missing message anchor", ErrBadSection)
	}

	return nil
}

// indexOfLine returns the index of the first exact line match, or -1
func indexOfLine(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}
