package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	"buswatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSnapshotRepository keeps one document per journey, keyed by journey id
type MongoSnapshotRepository struct {
	collection *mongo.Collection
}

// NewMongoSnapshotRepository creates a new snapshot repository on the "snapshots" collection
func NewMongoSnapshotRepository(db *mongo.Database) repository.SnapshotRepository {
	return &MongoSnapshotRepository{
		collection: db.Collection("snapshots"),
	}
}

// Load finds the journey's snapshot document
func (r *MongoSnapshotRepository) Load(ctx context.Context, journeyID string) ([]entity.Listing, error) {
	if err := validateJourneyID(journeyID); err != nil {
		return nil, err
	}

	res := r.collection.FindOne(ctx, bson.M{"_id": journeyID})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []entity.Listing{}, nil
		}
		return nil, fmt.Errorf("mongo find snapshot: %w", err)
	}

	var snapshot entity.Snapshot
	if err := res.Decode(&snapshot); err != nil {
		return nil, domain.DataCorruptionError{JourneyID: journeyID, Err: err}
	}
	for i, l := range snapshot.Listings {
		if l.ID == "" {
			return nil, domain.DataCorruptionError{JourneyID: journeyID, Err: fmt.Errorf("entry %d has no busId", i)}
		}
	}
	if snapshot.Listings == nil {
		return []entity.Listing{}, nil
	}
	return snapshot.Listings, nil
}

// Save replaces the whole document in one ReplaceOne, inserting it on first use
func (r *MongoSnapshotRepository) Save(ctx context.Context, journeyID string, listings []entity.Listing) error {
	if err := validateJourneyID(journeyID); err != nil {
		return err
	}
	if listings == nil {
		listings = []entity.Listing{}
	}

	snapshot := entity.Snapshot{
		JourneyID: journeyID,
		Listings:  listings,
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": journeyID}, snapshot, opts); err != nil {
		return fmt.Errorf("mongo replace snapshot: %w", err)
	}
	return nil
}
