package ports

import (
	"context"
	"errors"
	"time"

	"AWSNewsBot/internal/domain"
)

// ErrRateLimited marks upstream failures that ask the caller to slow down
// and try again. Adapters wrap their native throttling errors with it.
var ErrRateLimited = errors.New("rate limited")

// FeedSource pulls the current announcement list in feed order.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.NewsItem, error)
}

// ProcessedStore persists handled news ids for deduplication.
type ProcessedStore interface {
	IsEmpty(ctx context.Context) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, record domain.ProcessedRecord) error
}

// ContentExtractor fetches an article page and returns its body text.
// An empty string with a nil error means the page has no recognisable body.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Model sends a single-turn prompt to a hosted text-generation model.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers a text message to the chat destination.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
