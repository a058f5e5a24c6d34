package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	"buswatch-service/pkg/logger"
	"buswatch-service/pkg/metrics"
)

// CycleRunner runs one cycle for a journey
type CycleRunner interface {
	RunCycle(ctx context.Context, journey entity.Journey) (CycleResult, error)
}

// JourneyOrchestrator runs cycles for the configured journeys and keeps a
// failure in one journey from reaching any other.
type JourneyOrchestrator struct {
	processor CycleRunner
	journeys  []entity.Journey
	byID      map[string]entity.Journey
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewJourneyOrchestrator creates a new journey orchestrator
func NewJourneyOrchestrator(
	processor CycleRunner,
	journeys []entity.Journey,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *JourneyOrchestrator {
	byID := make(map[string]entity.Journey, len(journeys))
	for _, j := range journeys {
		byID[j.ID] = j
	}

	return &JourneyOrchestrator{
		processor: processor,
		journeys:  append([]entity.Journey(nil), journeys...),
		byID:      byID,
		metrics:   metrics,
		logger:    logger,
	}
}

// Journeys returns the configured journeys in file order
func (o *JourneyOrchestrator) Journeys() []entity.Journey {
	return append([]entity.Journey(nil), o.journeys...)
}

// Run executes one cycle for journeyID. Errors and panics are logged and
// counted, never returned.
func (o *JourneyOrchestrator) Run(ctx context.Context, journeyID string) {
	journey, ok := o.byID[journeyID]
	if !ok {
		o.logger.Error("Unknown journey", "journeyId", journeyID)
		o.metrics.ErrorsCount.WithLabelValues("unknown_journey").Inc()
		return
	}

	started := time.Now()
	log := o.logger.With("journeyId", journey.ID)
	log.Info("Checking for new listings", "startedAt", started.UTC())

	defer func() {
		if r := recover(); r != nil {
			log.Error("Cycle panicked", "panic", fmt.Sprint(r), "at", time.Now().UTC())
			o.metrics.ErrorsCount.WithLabelValues("panic").Inc()
			o.metrics.CyclesTotal.WithLabelValues(metrics.ResultFetchFailed).Inc()
		}
	}()

	result, err := o.processor.RunCycle(ctx, journey)
	o.metrics.CycleDuration.Observe(time.Since(started).Seconds())
	o.metrics.NewListingsTotal.Add(float64(len(result.NewListings)))

	if result.Notified {
		o.metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	} else if domain.IsNotify(err) {
		o.metrics.NotificationsTotal.WithLabelValues("failed").Inc()
	}

	outcome := classify(result, err)
	o.metrics.CyclesTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		o.metrics.ErrorsCount.WithLabelValues(outcome).Inc()
		log.Error("Cycle failed",
			"result", outcome,
			"error", err,
			"saved", result.Saved,
			"at", time.Now().UTC())
		return
	}

	log.Info("Cycle completed",
		"result", outcome,
		"fetched", result.Fetched,
		"new", len(result.NewListings),
		"duration", time.Since(started))
}

// RunAll runs one cycle for every journey concurrently and waits for all of them.
func (o *JourneyOrchestrator) RunAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range o.journeys {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			o.Run(ctx, id)
		}(j.ID)
	}
	wg.Wait()
}

func classify(result CycleResult, err error) string {
	switch {
	case domain.IsFetch(err):
		return metrics.ResultFetchFailed
	case domain.IsNotify(err):
		return metrics.ResultNotifyFailed
	case domain.IsDataCorruption(err) && result.Saved:
		return metrics.ResultCorrupted
	case err != nil:
		return metrics.ResultStoreFailed
	case result.Notified:
		return metrics.ResultNotified
	default:
		return metrics.ResultNoChange
	}
}
