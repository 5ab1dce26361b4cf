package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DirSource reads .eml files from a directory tree. Files that fail to
// parse are skipped with a warning so one broken export cannot block the
// rest of the mailbox. MarkProcessed moves a consumed file into the
// processed directory, which later fetches skip.
type DirSource struct {
	root      string
	processed string
	limit     int
	log       *zap.Logger

	// message id -> source file, filled by Fetch
	paths map[string]string
}

// NewDirSource creates a source over root. An empty processedDir
// defaults to a "processed" subdirectory of root. A limit of 0 means
// no limit.
func NewDirSource(root, processedDir string, limit int, log *zap.Logger) *DirSource {
	if processedDir == "" {
		processedDir = filepath.Join(root, "processed")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DirSource{
		root:      root,
		processed: processedDir,
		limit:     limit,
		log:       log,
		paths:     make(map[string]string),
	}
}

// Fetch walks the mailbox for .eml files and returns the parsed
// messages ordered by received time ascending, capped at the configured
// limit
func (s *DirSource) Fetch(ctx context.Context) ([]Message, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute root path: %w", err)
	}
	absProcessed, err := filepath.Abs(s.processed)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute processed path: %w", err)
	}

	var files []string
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() {
			if path == absProcessed {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.ToLower(filepath.Ext(path)) == ".eml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan mailbox: %w", err)
	}

	paths := make(map[string]string, len(files))
	messages := make([]Message, 0, len(files))
	for _, path := range files {
		msg, err := ParseEMLFile(path)
		if err != nil {
			s.log.Warn("skipping unparseable email",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		if _, seen := paths[msg.ID]; seen {
			s.log.Warn("skipping duplicate message id",
				zap.String("path", path),
				zap.String("message_id", msg.ID))
			continue
		}
		paths[msg.ID] = path
		messages = append(messages, *msg)
	}
	s.paths = paths

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Received.Before(messages[j].Received)
	})

	if s.limit > 0 && len(messages) > s.limit {
		messages = messages[:s.limit]
	}
	return messages, nil
}

// MarkProcessed moves the message's file into the processed directory
func (s *DirSource) MarkProcessed(ctx context.Context, id string) error {
	path, ok := s.paths[id]
	if !ok {
		return fmt.Errorf("unknown message id %q", id)
	}

	if err := os.MkdirAll(s.processed, 0755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}

	dest := filepath.Join(s.processed, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move processed email: %w", err)
	}

	delete(s.paths, id)
	return nil
}
