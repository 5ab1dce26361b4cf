package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/felo/mailnotes/internal/classify"
	"github.com/felo/mailnotes/internal/mailbox"
	"github.com/felo/mailnotes/internal/notes"
	"github.com/felo/mailnotes/internal/render"
	"github.com/felo/mailnotes/internal/store"
	"github.com/felo/mailnotes/internal/summarize"
)

// Stage names the pipeline step a failure happened in
type Stage string

const (
	StageSummarize Stage = "summarize"
	StageRender    Stage = "render"
	StageResolve   Stage = "resolve"
	StageMerge     Stage = "merge"
	StageStore     Stage = "store"
)

// Outcome describes what happened to one message
type Outcome string

const (
	OutcomeCreated Outcome = "created" // new note written
	OutcomeUpdated Outcome = "updated" // section appended to an existing note
	OutcomeSkipped Outcome = "skipped" // already consolidated, no write
	OutcomeFailed  Outcome = "failed"
)

// Result is the per-message processing record. Stage and Err are only
// set for failed messages.
type Result struct {
	MessageID string
	NoteKey   string
	Outcome   Outcome
	Stage     Stage
	Err       error
}

// RunStats aggregates one engine run
type RunStats struct {
	RunID   string
	Fetched int
	Created int
	Updated int
	Skipped int
	Failed  int
	Results []Result
}

// Options holds the run configuration the engine needs
type Options struct {
	InternalDomains      []string
	ProjectNames         []string
	StripSubjectPrefixes bool
}

// Engine sequences the per-email pipeline: classify participants,
// summarize, render a section, resolve the target note, merge, write.
// Messages are processed one at a time; a failure in one message never
// aborts the rest of the batch. Runs must not overlap: two engines
// consolidating the same notes concurrently is unsupported.
type Engine struct {
	source     mailbox.Source
	summarizer summarize.Summarizer
	store      store.Store
	classifier *classify.Classifier
	renderer   *render.Renderer
	strip      bool
	log        *zap.Logger
}

// New creates an engine over the given capabilities
func New(source mailbox.Source, summarizer summarize.Summarizer, st store.Store, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		source:     source,
		summarizer: summarizer,
		store:      st,
		classifier: classify.New(opts.InternalDomains),
		renderer:   render.New(opts.ProjectNames),
		strip:      opts.StripSubjectPrefixes,
		log:        log,
	}
}

// Run fetches the pending messages and consolidates each into its
// note. The returned stats carry a per-message result; only a failure
// to fetch at all returns an error.
func (e *Engine) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{RunID: uuid.NewString()}
	log := e.log.With(zap.String("run_id", stats.RunID))

	messages, err := e.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	stats.Fetched = len(messages)
	log.Info("starting synthesis run", zap.Int("messages", len(messages)))

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		res := e.process(ctx, msg, log)
		stats.Results = append(stats.Results, res)

		switch res.Outcome {
		case OutcomeCreated:
			stats.Created++
		case OutcomeUpdated:
			stats.Updated++
		case OutcomeSkipped:
			stats.Skipped++
		case OutcomeFailed:
			stats.Failed++
			log.Error("message failed",
				zap.String("message_id", res.MessageID),
				zap.String("stage", string(res.Stage)),
				zap.Error(res.Err))
			continue
		}

		// The anchor makes reprocessing a no-op, so a failed move is
		// only worth a warning; the file is retried next run.
		if err := e.source.MarkProcessed(ctx, msg.ID); err != nil {
			log.Warn("failed to mark message processed",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}

	log.Info("synthesis run finished",
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

// process runs the pipeline for one message
func (e *Engine) process(ctx context.Context, msg mailbox.Message, log *zap.Logger) Result {
	res := Result{MessageID: msg.ID}

	fail := func(stage Stage, err error) Result {
		res.Outcome = OutcomeFailed
		res.Stage = stage
		res.Err = err
		return res
	}

	subject := e.subjectFor(msg)
	log.Debug("processing message",
		zap.String("message_id", msg.ID),
		zap.String("subject", subject))

	s, err := e.summarizer.Summarize(ctx, subject, msg.BodyText)
	if err != nil {
		return fail(StageSummarize, err)
	}
	if err := s.Validate(); err != nil {
		return fail(StageSummarize, err)
	}

	sender := e.classifier.Classify(msg.Sender.Email, msg.Sender.Name)
	recipients := make([]classify.Participant, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		recipients = append(recipients, e.classifier.Classify(r.Email, r.Name))
	}

	section, err := e.renderer.Section(s, render.Metadata{
		MessageID:  msg.ID,
		Subject:    subject,
		Received:   msg.Received,
		Sender:     sender,
		Recipients: recipients,
	})
	if err != nil {
		return fail(StageRender, err)
	}

	handle, err := notes.Resolve(ctx, subject, storeLookup{e.store})
	if err != nil {
		return fail(StageResolve, err)
	}
	res.NoteKey = handle.Key

	final, err := notes.Merge(handle.Body(), section, msg.ID)
	if err != nil {
		return fail(StageMerge, err)
	}

	switch {
	case !handle.Exists():
		if _, err := e.store.Create(ctx, handle.Key, final); err != nil {
			return fail(StageStore, err)
		}
		res.Outcome = OutcomeCreated
	case final == handle.Body():
		// Anchor already present, nothing to write
		res.Outcome = OutcomeSkipped
	default:
		if err := e.store.Update(ctx, handle.Ref(), final); err != nil {
			return fail(StageStore, err)
		}
		res.Outcome = OutcomeUpdated
	}

	log.Info("message consolidated",
		zap.String("message_id", msg.ID),
		zap.String("note_key", res.NoteKey),
		zap.String("outcome", string(res.Outcome)))
	return res
}

// subjectFor applies the configured subject policy: a blank subject
// becomes "No subject", and reply prefixes are stripped before the
// note is resolved when the toggle is on
func (e *Engine) subjectFor(msg mailbox.Message) string {
	subject := strings.TrimSpace(msg.Subject)
	if e.strip {
		subject = notes.StripReplyPrefixes(subject)
	}
	if subject == "" {
		return "No subject"
	}
	return subject
}

// storeLookup adapts the document store to the resolver's narrow
// find-by-key capability
type storeLookup struct {
	store store.Store
}

func (l storeLookup) Find(ctx context.Context, key string) (*notes.Existing, error) {
	note, err := l.store.FindByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notes.Existing{Ref: note.Ref, Body: note.Body}, nil
}
