package jobs

import (
	"github.com/emrgen/folio/internal/service"
	"github.com/sirupsen/logrus"
)

type SessionLister interface {
	Sessions() []service.SessionRef
}

// StatsTask periodically logs how many edit sessions are live.
type StatsTask struct {
	sessions SessionLister
	cron     string
}

func NewStatsTask(cron string, sessions SessionLister) *StatsTask {
	return &StatsTask{sessions: sessions, cron: cron}
}

func (l *StatsTask) ID() string {
	return "stats"
}

func (l *StatsTask) Name() string {
	return "stats"
}

func (l *StatsTask) Schedule() string {
	return l.cron
}

func (l *StatsTask) Run() {
	logrus.Infof("live edit sessions: %d", len(l.sessions.Sessions()))
}
