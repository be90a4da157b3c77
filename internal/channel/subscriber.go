package channel

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/model"
	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 500 * time.Millisecond

type State int

const (
	// StateEmpty means the slot held no usable document when the subscription began.
	StateEmpty State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "empty"
}

// Update is delivered to a subscriber callback.
type Update struct {
	State    State
	Document *model.PortfolioDocument
	Err      error
}

// Subscriber follows a slot from a preview context. Updates arrive through two
// paths: slot change notifications and a fixed-interval poll. Both paths read the
// slot and only report values that differ from the last one delivered, so the
// subscriber converges on the last write and skips intermediate ones.
type Subscriber struct {
	slot     cache.Slot
	key      string
	codec    *Codec
	interval time.Duration
}

func NewSubscriber(slot cache.Slot, key string, codec *Codec, interval time.Duration) *Subscriber {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Subscriber{slot: slot, key: key, codec: codec, interval: interval}
}

// Subscription is the cancellation handle of a running subscription.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close stops both delivery paths and waits until no further callback can run.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed when the subscription has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe starts following the slot and returns immediately. onChange is called
// from a single goroutine, never concurrently with itself. If the slot is empty or
// unparsable at start, the first call carries StateEmpty.
func (s *Subscriber) Subscribe(ctx context.Context, onChange func(Update)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go s.run(ctx, sub.done, onChange)

	return sub
}

func (s *Subscriber) run(ctx context.Context, done chan struct{}, onChange func(Update)) {
	defer close(done)

	changes, err := s.slot.Watch(ctx, s.key)
	if err != nil {
		logrus.Warnf("slot %s: change events unavailable, polling only: %v", s.key, err)
		changes = nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var last *model.PortfolioDocument
	emptyShown := false

	apply := func() {
		doc, err := Read(ctx, s.slot, s.key, s.codec)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			if last == nil && !emptyShown {
				emptyShown = true
				onChange(Update{State: StateEmpty, Err: err})
			} else {
				logrus.Debugf("slot %s: keeping last document: %v", s.key, err)
			}
			return
		}

		if last != nil && reflect.DeepEqual(last, doc) {
			return
		}

		last = doc
		onChange(Update{State: StateReady, Document: doc.Clone()})
	}

	apply()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			apply()
		case <-ticker.C:
			apply()
		}
	}
}
