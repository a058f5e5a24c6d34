package scheduler

import (
	"context"
	"fmt"
	"sync"

	"buswatch-service/internal/domain/entity"
	"buswatch-service/pkg/logger"
	"buswatch-service/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// JourneyRunner runs a single cycle for a journey
type JourneyRunner interface {
	Run(ctx context.Context, journeyID string)
	Journeys() []entity.Journey
}

// Scheduler triggers one cycle per journey on a cron schedule. A journey
// never has more than one cycle in flight; overlapping triggers are skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  JourneyRunner
	spec    string
	jobs    map[string]cron.Job
	order   []string
	metrics *metrics.Metrics
	logger  logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	startup sync.WaitGroup
}

// New creates a scheduler with one cron entry per journey. spec accepts the
// standard five-field syntax and descriptors such as "@every 10m".
func New(spec string, runner JourneyRunner, m *metrics.Metrics, log logger.Logger) (*Scheduler, error) {
	cronLog := logger.NewCronLogger(log)
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLog)),
		runner:  runner,
		spec:    spec,
		jobs:    make(map[string]cron.Job),
		metrics: m,
		logger:  log,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, j := range runner.Journeys() {
		job := s.wrap(j.ID, cronLog)
		if _, err := s.cron.AddJob(spec, job); err != nil {
			return nil, fmt.Errorf("schedule journey %s: %w", j.ID, err)
		}
		s.jobs[j.ID] = job
		s.order = append(s.order, j.ID)
	}

	return s, nil
}

func (s *Scheduler) wrap(journeyID string, cronLog cron.Logger) cron.Job {
	run := cron.FuncJob(func() {
		s.runner.Run(s.ctx, journeyID)
	})
	skip := &skipLogger{Logger: cronLog, journeyID: journeyID, metrics: s.metrics, log: s.logger}
	return cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(skip)).Then(run)
}

// Start runs every journey once immediately, then hands over to the cron
// schedule. Cycles stop receiving a live context once ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()

	s.logger.Info("Starting scheduler", "journeys", len(s.order), "schedule", s.spec)
	for _, id := range s.order {
		s.startup.Add(1)
		go func(job cron.Job) {
			defer s.startup.Done()
			job.Run()
		}(s.jobs[id])
	}
	s.cron.Start()
}

// Trigger runs a journey's cycle now through the same in-flight guard as the
// schedule. Returns false for an unknown journey.
func (s *Scheduler) Trigger(journeyID string) bool {
	job, ok := s.jobs[journeyID]
	if !ok {
		return false
	}
	job.Run()
	return true
}

// Stop cancels running cycles, stops the cron loop and waits for jobs in flight.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.logger.Info("Scheduler stopped")
}

// skipLogger counts the "skip" events cron.SkipIfStillRunning reports.
type skipLogger struct {
	cron.Logger
	journeyID string
	metrics   *metrics.Metrics
	log       logger.Logger
}

func (l *skipLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.metrics.SkippedCycles.Inc()
		l.log.Warn("Previous cycle still running, trigger skipped", "journeyId", l.journeyID)
		return
	}
	l.Logger.Info(msg, keysAndValues...)
}
