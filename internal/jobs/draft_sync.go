package jobs

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/folio/internal/service"
	"github.com/sirupsen/logrus"
)

// DraftSyncer is the part of the portfolio service the draft jobs drive.
type DraftSyncer interface {
	Sessions() []service.SessionRef
	SyncDraft(ctx context.Context, sessionID string) (bool, error)
}

// DraftSyncTask copies each live session's slot value into the drafts table, so
// sessions survive a restart of the api.
type DraftSyncTask struct {
	syncer  DraftSyncer
	cron    string
	timeout time.Duration
	failing mapset.Set[string]
}

func NewDraftSyncTask(interval string, syncer DraftSyncer) *DraftSyncTask {
	return &DraftSyncTask{
		syncer:  syncer,
		cron:    interval,
		timeout: 30 * time.Second,
		failing: mapset.NewSet[string](),
	}
}

func (c *DraftSyncTask) ID() string {
	return "draft_sync"
}

func (c *DraftSyncTask) Name() string {
	return "draft_sync"
}

func (c *DraftSyncTask) Schedule() string {
	return c.cron
}

func (c *DraftSyncTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	written := 0
	for _, ref := range c.syncer.Sessions() {
		ok, err := c.syncer.SyncDraft(ctx, ref.ID)
		if err != nil {
			// log a failing session once until it recovers
			if c.failing.Add(ref.ID) {
				logrus.Errorf("draft sync failed for session %s: %v", ref.ID, err)
			}
			continue
		}
		c.failing.Remove(ref.ID)
		if ok {
			written++
		}
	}

	if written > 0 {
		logrus.Infof("synced %d drafts", written)
	}
}

// Failing returns the sessions whose last sync failed.
func (c *DraftSyncTask) Failing() []string {
	return c.failing.ToSlice()
}
