package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buswatch-service/internal/domain/entity"
	"buswatch-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSnapshotRepository implements the SnapshotRepository interface on PostgreSQL
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GORM snapshot repository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{
		db: db,
	}
}

var _ repository.SnapshotRepository = (*GormSnapshotRepository)(nil)

// JourneySnapshots GORM model for database mapping
type JourneySnapshots struct {
	JourneyID string    `gorm:"column:journey_id;primaryKey"`
	Listings  string    `gorm:"column:listings;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (JourneySnapshots) TableName() string {
	return "journey_snapshots"
}

// Migrate creates the snapshot table if it does not exist
func (r *GormSnapshotRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&JourneySnapshots{})
}

// Load finds a snapshot row by journey id
func (r *GormSnapshotRepository) Load(ctx context.Context, journeyID string) ([]entity.Listing, error) {
	if err := validateJourneyID(journeyID); err != nil {
		return nil, err
	}

	var row JourneySnapshots
	result := r.db.WithContext(ctx).Where("journey_id = ?", journeyID).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return []entity.Listing{}, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("query snapshot: %w", result.Error)
	}

	return decodeListings(journeyID, []byte(row.Listings))
}

// Save upserts the row; the single statement replaces the listings column as a whole
func (r *GormSnapshotRepository) Save(ctx context.Context, journeyID string, listings []entity.Listing) error {
	if err := validateJourneyID(journeyID); err != nil {
		return err
	}

	data, err := encodeListings(listings)
	if err != nil {
		return err
	}

	row := JourneySnapshots{
		JourneyID: journeyID,
		Listings:  string(data),
		UpdatedAt: time.Now().UTC(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "journey_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"listings", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("upsert snapshot: %w", result.Error)
	}
	return nil
}
