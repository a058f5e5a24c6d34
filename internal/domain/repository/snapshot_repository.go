package repository

import (
	"context"

	"buswatch-service/internal/domain/entity"
)

// SnapshotRepository defines the interface for per-journey snapshot storage
type SnapshotRepository interface {
	// Load returns the last saved listings, or an empty slice when none exist.
	// Undecodable data yields a domain.DataCorruptionError.
	Load(ctx context.Context, journeyID string) ([]entity.Listing, error)
	// Save atomically replaces the journey's snapshot with listings.
	Save(ctx context.Context, journeyID string, listings []entity.Listing) error
}
