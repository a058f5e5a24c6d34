// internal/domain/entity/listing.go
package entity

import "time"

// Listing is one bus departure offer observed for a journey.
// ID is the upstream trip id and is the only field that identifies a listing;
// SeatsAvailable changes between fetches for the same departure.
type Listing struct {
	ID             string    `json:"busId" bson:"busId"`
	JourneyID      string    `json:"journeyId" bson:"journeyId"`
	Company        string    `json:"company" bson:"company"`
	Class          SeatClass `json:"busType" bson:"busType"`
	Route          string    `json:"route" bson:"route"`
	DepartureTime  string    `json:"startTime" bson:"startTime"`
	ArrivalTime    string    `json:"endTime" bson:"endTime"`
	SeatsAvailable int       `json:"seatsAvailable" bson:"seatsAvailable"`
}

// Snapshot is the persisted listing set from a journey's most recent completed cycle.
type Snapshot struct {
	JourneyID string    `json:"journeyId" bson:"_id"`
	Listings  []Listing `json:"listings" bson:"listings"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
