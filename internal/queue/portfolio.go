package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

var PortfolioPublishedTopic = "portfolio.published"

// PublishedEvent announces a newly published portfolio version.
type PublishedEvent struct {
	PortfolioID string    `json:"portfolioId"`
	OwnerID     string    `json:"ownerId"`
	UniqueURL   string    `json:"uniqueUrl"`
	Theme       string    `json:"theme"`
	PublishedAt time.Time `json:"publishedAt"`
}

func (e *PublishedEvent) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

type PortfolioQueue interface {
	// PublishPublished appends a published event to the queue.
	PublishPublished(ctx context.Context, event *PublishedEvent) error
	Close() error
}

var _ PortfolioQueue = (*MemoryQueue)(nil)

// MemoryQueue keeps events in process. It backs single-binary mode and tests.
type MemoryQueue struct {
	mu     sync.Mutex
	events []PublishedEvent
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) PublishPublished(ctx context.Context, event *PublishedEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, *event)
	return nil
}

// Events returns the events published so far.
func (q *MemoryQueue) Events() []PublishedEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PublishedEvent(nil), q.events...)
}

func (q *MemoryQueue) Close() error {
	return nil
}
