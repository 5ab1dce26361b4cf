package mailbox

import (
	"context"
	"time"
)

// Address is a single mail participant
type Address struct {
	Name  string
	Email string
}

// Message is one email ready for summarization
type Message struct {
	ID         string
	Subject    string
	Received   time.Time
	Sender     Address
	Recipients []Address
	BodyText   string
}

// Source yields unprocessed messages. Fetch returns messages ordered by
// received time ascending, so notes grow chronologically within a run.
// MarkProcessed acknowledges a message so the next Fetch no longer
// returns it.
type Source interface {
	Fetch(ctx context.Context) ([]Message, error)
	MarkProcessed(ctx context.Context, id string) error
}
