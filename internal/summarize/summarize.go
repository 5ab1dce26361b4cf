package summarize

import (
	"context"

	"github.com/felo/mailnotes/internal/summary"
)

// Summarizer turns raw email text into a structured summary. The
// engine only depends on this capability, so tests and dry runs can
// plug in an in-process implementation.
type Summarizer interface {
	Summarize(ctx context.Context, subject, bodyText string) (summary.Summary, error)
}

// Func adapts a plain function into a Summarizer
type Func func(ctx context.Context, subject, bodyText string) (summary.Summary, error)

// Summarize calls the wrapped function
func (f Func) Summarize(ctx context.Context, subject, bodyText string) (summary.Summary, error) {
	return f(ctx, subject, bodyText)
}
