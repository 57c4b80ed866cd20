package ports

import (
	"context"
	"time"

	"WorumTop/internal/domain"
)

// Fetcher retrieves raw markup for a page URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ForumParser turns forum markup into structured records. Every operation is
// tolerant: missing elements degrade to empty values.
type ForumParser interface {
	Listing(markup string) []domain.ThreadSummary
	Excerpt(markup string) domain.ThreadExcerpt
	RubricLinks(markup string) []domain.RubricLink
	RubricMembers(markup string) []domain.RubricMemberLink
	Resolve(path string) string
}

// Sender delivers one finished message to a chat.
type Sender interface {
	Send(ctx context.Context, dest domain.Destination, msg domain.Message) error
}

// SubscriberRegistry holds the destinations of scheduled pushes.
type SubscriberRegistry interface {
	Add(dest domain.Destination)
	Snapshot() []domain.Destination
}

// Scheduler controls when the periodic broadcast executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
