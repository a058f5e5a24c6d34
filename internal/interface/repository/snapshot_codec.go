package repository

import (
	"encoding/json"
	"fmt"
	"regexp"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
)

var journeyIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validateJourneyID keeps ids usable as file names and storage keys.
func validateJourneyID(journeyID string) error {
	if !journeyIDPattern.MatchString(journeyID) {
		return fmt.Errorf("invalid journey id %q", journeyID)
	}
	return nil
}

// encodeListings serializes a snapshot as an indented JSON array. A nil
// slice is written as [] so an empty snapshot stays distinguishable from a
// missing one.
func encodeListings(listings []entity.Listing) ([]byte, error) {
	if listings == nil {
		listings = []entity.Listing{}
	}
	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func decodeListings(journeyID string, data []byte) ([]entity.Listing, error) {
	var listings []entity.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, domain.DataCorruptionError{JourneyID: journeyID, Err: err}
	}
	if listings == nil {
		// "null" decodes without error but is not something Save ever writes.
		return nil, domain.DataCorruptionError{JourneyID: journeyID, Err: fmt.Errorf("snapshot is null")}
	}
	for i, l := range listings {
		if l.ID == "" {
			return nil, domain.DataCorruptionError{JourneyID: journeyID, Err: fmt.Errorf("entry %d has no busId", i)}
		}
	}
	return listings, nil
}
