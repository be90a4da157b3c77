package cache

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by Get when nothing has been written under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a durable single-value cell per key, reachable from every process that
// takes part in an edit session. Writes overwrite; the last write wins.
type Slot interface {
	// Get reads the current value under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value under key and notifies watchers.
	Set(ctx context.Context, key string, value []byte) error
	// Watch returns a channel that receives a signal after writes to key. Signals
	// may be coalesced or lost, so readers must not rely on them alone. The channel
	// is closed once ctx is done.
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
	// Delete removes the value under key.
	Delete(ctx context.Context, key string) error
	Close() error
}

// notify performs a non-blocking send; a pending signal already covers this write.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
