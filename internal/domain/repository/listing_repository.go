package repository

import (
	"context"

	"buswatch-service/internal/domain/entity"
)

// ListingRepository fetches the current listings for a journey from upstream.
// Implementations apply the journey's class filter and return a
// domain.FetchError when the result page could not be obtained.
type ListingRepository interface {
	Fetch(ctx context.Context, journey entity.Journey) ([]entity.Listing, error)
}
