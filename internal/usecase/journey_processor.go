package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"
	"buswatch-service/templates"

	"golang.org/x/sync/errgroup"
)

// NotifyFailurePolicy decides whether a failed notification still persists the snapshot.
type NotifyFailurePolicy string

const (
	// NotifyFailurePersist saves the fresh listings anyway; the failed notice is lost.
	NotifyFailurePersist NotifyFailurePolicy = "persist"
	// NotifyFailureResend skips the save so the next cycle reports the same listings again.
	NotifyFailureResend NotifyFailurePolicy = "resend"
)

// CorruptionPolicy decides how a cycle treats an undecodable snapshot.
type CorruptionPolicy string

const (
	// CorruptionRebaseline skips notification and overwrites the snapshot with the fresh fetch.
	CorruptionRebaseline CorruptionPolicy = "rebaseline"
	// CorruptionReset treats the snapshot as empty, notifies everything, then persists.
	CorruptionReset CorruptionPolicy = "reset"
)

// ProcessorOptions tunes a JourneyProcessor. Zero values fall back to defaults.
type ProcessorOptions struct {
	NotifyTimeout       time.Duration
	NotifyFailurePolicy NotifyFailurePolicy
	CorruptionPolicy    CorruptionPolicy
	// BookingURL builds the link placed at the end of a notification.
	BookingURL func(entity.Journey) string
}

// CycleResult summarizes one fetch-diff-notify-persist cycle.
type CycleResult struct {
	JourneyID   string
	Fetched     int
	NewListings []entity.Listing
	Notified    bool
	Saved       bool
	Corrupted   bool
}

// JourneyProcessor runs a single change-detection cycle for a journey
type JourneyProcessor struct {
	fetcher   repository.ListingRepository
	snapshots repository.SnapshotRepository
	messenger repository.MessengerRepository
	opts      ProcessorOptions
	logger    logger.Logger
}

// NewJourneyProcessor creates a new journey processor
func NewJourneyProcessor(
	fetcher repository.ListingRepository,
	snapshots repository.SnapshotRepository,
	messenger repository.MessengerRepository,
	opts ProcessorOptions,
	logger logger.Logger,
) *JourneyProcessor {
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 30 * time.Second
	}
	if opts.NotifyFailurePolicy == "" {
		opts.NotifyFailurePolicy = NotifyFailurePersist
	}
	if opts.CorruptionPolicy == "" {
		opts.CorruptionPolicy = CorruptionRebaseline
	}
	if opts.BookingURL == nil {
		opts.BookingURL = func(entity.Journey) string { return "" }
	}

	return &JourneyProcessor{
		fetcher:   fetcher,
		snapshots: snapshots,
		messenger: messenger,
		opts:      opts,
		logger:    logger,
	}
}

// RunCycle fetches the current listings and loads the previous snapshot in
// parallel, notifies about listings not present in the snapshot, then
// replaces the snapshot with everything fetched. A failed fetch never
// touches the snapshot.
func (p *JourneyProcessor) RunCycle(ctx context.Context, journey entity.Journey) (CycleResult, error) {
	result := CycleResult{JourneyID: journey.ID}
	log := p.logger.With("journeyId", journey.ID)

	var current, previous []entity.Listing
	var loadErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		listings, err := p.fetcher.Fetch(gctx, journey)
		if err != nil {
			if !domain.IsFetch(err) {
				err = domain.FetchError{JourneyID: journey.ID, Reason: domain.ReasonNavigation, Err: err}
			}
			return err
		}
		current = listings
		return nil
	})
	g.Go(func() error {
		listings, err := p.snapshots.Load(gctx, journey.ID)
		if err != nil {
			if domain.IsDataCorruption(err) {
				// Corruption must not cancel the fetch; the fresh set is needed to recover.
				loadErr = err
				return nil
			}
			return fmt.Errorf("load snapshot: %w", err)
		}
		previous = listings
		return nil
	})
	if err := g.Wait(); err != nil {
		return result, err
	}
	result.Fetched = len(current)
	log.Debug("Listings fetched", "count", len(current), "previous", len(previous))

	if loadErr != nil {
		result.Corrupted = true
		log.Warn("Snapshot is corrupted", "policy", p.opts.CorruptionPolicy, "error", loadErr)

		if p.opts.CorruptionPolicy == CorruptionRebaseline {
			if err := p.save(ctx, journey.ID, current); err != nil {
				return result, errors.Join(loadErr, err)
			}
			result.Saved = true
			return result, loadErr
		}
		previous = nil
	}

	result.NewListings = Diff(current, previous)

	var notifyErr error
	if len(result.NewListings) > 0 {
		log.Info("New listings found", "count", len(result.NewListings))
		notifyErr = p.notify(ctx, journey, result.NewListings)
		if notifyErr == nil {
			result.Notified = true
		} else if p.opts.NotifyFailurePolicy == NotifyFailureResend {
			log.Warn("Notification failed, snapshot left unchanged for resend", "error", notifyErr)
			return result, errors.Join(loadErr, notifyErr)
		}
	}

	if err := p.save(ctx, journey.ID, current); err != nil {
		return result, errors.Join(loadErr, notifyErr, err)
	}
	result.Saved = true

	return result, errors.Join(loadErr, notifyErr)
}

func (p *JourneyProcessor) notify(ctx context.Context, journey entity.Journey, added []entity.Listing) error {
	message := templates.NewListingsMessage(journey, added, p.opts.BookingURL(journey))

	ctx, cancel := context.WithTimeout(ctx, p.opts.NotifyTimeout)
	defer cancel()

	if err := p.messenger.Send(ctx, journey.Target, message); err != nil {
		return domain.NotifyError{JourneyID: journey.ID, Target: journey.Target, Err: err}
	}
	return nil
}

func (p *JourneyProcessor) save(ctx context.Context, journeyID string, listings []entity.Listing) error {
	if err := p.snapshots.Save(ctx, journeyID, listings); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
