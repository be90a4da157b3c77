package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

type Job interface {
	Run()
}

type CronJob interface {
	Schedule() string
	Job
}

// TaskExecutor runs jobs on cron schedules. A job whose previous run has not
// finished is skipped, so runs of one job never overlap.
type TaskExecutor struct {
	cron            *cron.Cron
	jobs            []Job
	cronJobs        []CronJob
	runningJobs     mapset.Set[Job]
	runningCronJobs mapset.Set[CronJob]
	muJobs          sync.Mutex
	muCronJobs      sync.Mutex
}

func NewTaskExecutor(jobs []Job, cronJobs []CronJob) *TaskExecutor {
	return &TaskExecutor{
		cron:            cron.New(),
		jobs:            jobs,
		cronJobs:        cronJobs,
		runningCronJobs: mapset.NewSet[CronJob](),
		runningJobs:     mapset.NewSet[Job](),
	}
}

// Run the jobs in its own goroutine inside the cron.
func (t *TaskExecutor) Run() error {
	for _, job := range t.cronJobs {
		err := t.cron.AddFunc(job.Schedule(), func() {
			if !tryStart(&t.muCronJobs, t.runningCronJobs, job) {
				logrus.Warn("task is already scheduled")
				return
			}
			defer finish(&t.muCronJobs, t.runningCronJobs, job)

			job.Run()
		})
		if err != nil {
			logrus.Errorf("failed to add task to cron: %v", err)
			return err
		}
	}

	for _, job := range t.jobs {
		err := t.cron.AddFunc("@every 1s", func() {
			if !tryStart(&t.muJobs, t.runningJobs, job) {
				logrus.Debug("task is already running")
				return
			}
			defer finish(&t.muJobs, t.runningJobs, job)

			job.Run()
		})
		if err != nil {
			return err
		}
	}

	t.cron.Start()

	return nil
}

func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()
}

func tryStart[T comparable](mu *sync.Mutex, running mapset.Set[T], job T) bool {
	mu.Lock()
	defer mu.Unlock()

	if running.Contains(job) {
		return false
	}
	running.Add(job)
	return true
}

func finish[T comparable](mu *sync.Mutex, running mapset.Set[T], job T) {
	mu.Lock()
	defer mu.Unlock()
	running.Remove(job)
}
