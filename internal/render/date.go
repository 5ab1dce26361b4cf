package render

import (
	"fmt"
	"time"
)

// DateLink renders a time as a Logseq wiki date link, e.g. [[Oct 6th, 2025]]
func DateLink(t time.Time) string {
	day := t.Day()
	return fmt.Sprintf("[[%s %d%s, %d]]", t.Format("Jan"), day, ordinal(day), t.Year())
}

// ordinal returns the English ordinal suffix for a day of month.
// 11, 12 and 13 take "th" despite ending in 1, 2 and 3.
func ordinal(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
