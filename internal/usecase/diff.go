package usecase

import "buswatch-service/internal/domain/entity"

// Diff returns the listings in current whose ID does not appear in previous,
// in current's order. Seat counts and other fields never make a listing new.
func Diff(current, previous []entity.Listing) []entity.Listing {
	seen := make(map[string]struct{}, len(previous))
	for _, l := range previous {
		seen[l.ID] = struct{}{}
	}

	added := make([]entity.Listing, 0)
	for _, l := range current {
		if _, ok := seen[l.ID]; !ok {
			added = append(added, l)
		}
	}
	return added
}
