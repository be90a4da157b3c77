package jobs

import (
	"time"

	"github.com/sirupsen/logrus"
)

// IdleEvicter drops sessions that have been idle too long.
type IdleEvicter interface {
	EvictIdle(idle time.Duration) []string
}

// SessionReaper evicts idle, already synced sessions from memory on a ticker.
// Evicted sessions are restored from their draft on the next request.
type SessionReaper struct {
	evicter  IdleEvicter
	idle     time.Duration
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

func NewSessionReaper(evicter IdleEvicter, idle, interval time.Duration) *SessionReaper {
	return &SessionReaper{
		evicter:  evicter,
		idle:     idle,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Stop ends Run and waits for it to return.
func (c *SessionReaper) Stop() {
	close(c.done)
	<-c.stopped
}

func (c *SessionReaper) Run() {
	defer close(c.stopped)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.reap()
		}
	}
}

func (c *SessionReaper) reap() {
	evicted := c.evicter.EvictIdle(c.idle)
	if len(evicted) > 0 {
		logrus.Infof("evicted %d idle sessions", len(evicted))
	}
}
