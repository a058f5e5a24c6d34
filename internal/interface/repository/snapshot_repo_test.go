package repository

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func sampleListings() []entity.Listing {
	return []entity.Listing{
		{ID: "101", JourneyID: "a", Company: "Green Line", Class: entity.ClassAC, Route: "Bogura - Dhaka", DepartureTime: "13:05", ArrivalTime: "18:30", SeatsAvailable: 12},
		{ID: "202", JourneyID: "a", Company: "Hanif", Class: entity.ClassNonAC, Route: "Bogura - Dhaka", DepartureTime: "00:15", ArrivalTime: "06:00", SeatsAvailable: 30},
	}
}

// runSnapshotContract exercises the behaviour every backend must share.
func runSnapshotContract(t *testing.T, store repository.SnapshotRepository) {
	ctx := context.Background()

	t.Run("missing snapshot loads empty", func(t *testing.T) {
		got, err := store.Load(ctx, "never-saved")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", sampleListings()))
		got, err := store.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, sampleListings(), got)
	})

	t.Run("save replaces rather than merges", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", sampleListings()))
		require.NoError(t, store.Save(ctx, "a", sampleListings()[1:]))
		got, err := store.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, sampleListings()[1:], got)
	})

	t.Run("empty save is kept as empty", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", nil))
		got, err := store.Load(ctx, "a")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("journeys are isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", sampleListings()[:1]))
		require.NoError(t, store.Save(ctx, "b", sampleListings()[1:]))
		gotA, err := store.Load(ctx, "a")
		require.NoError(t, err)
		gotB, err := store.Load(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "101", gotA[0].ID)
		assert.Equal(t, "202", gotB[0].ID)
	})

	t.Run("invalid journey id rejected", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, "../escape", nil))
		_, err := store.Load(ctx, "a/b")
		assert.Error(t, err)
	})
}

func TestFileSnapshotRepository(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSnapshotRepository(dir, logger.NewNopLogger())
	require.NoError(t, err)

	runSnapshotContract(t, store)

	t.Run("file is human readable json", func(t *testing.T) {
		require.NoError(t, store.Save(context.Background(), "a", sampleListings()))
		data, err := os.ReadFile(filepath.Join(dir, "snapshot_a.json"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "[\n  {"))
		assert.Contains(t, string(data), `"busId": "101"`)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
		}
	})

	t.Run("corrupted file reports data corruption", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot_bad.json"), []byte("{truncated"), 0o644))
		_, err := store.Load(context.Background(), "bad")
		assert.True(t, domain.IsDataCorruption(err))

		require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot_null.json"), []byte("null"), 0o644))
		_, err = store.Load(context.Background(), "null")
		assert.True(t, domain.IsDataCorruption(err))

		require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot_noid.json"), []byte(`[{"company":"x"}]`), 0o644))
		_, err = store.Load(context.Background(), "noid")
		assert.True(t, domain.IsDataCorruption(err))
	})
}

func TestRedisSnapshotRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisSnapshotRepository(client)
	runSnapshotContract(t, store)

	t.Run("key layout", func(t *testing.T) {
		require.NoError(t, store.Save(context.Background(), "a", sampleListings()))
		assert.True(t, mr.Exists("buswatch:snapshot:a"))
	})

	t.Run("corrupted value reports data corruption", func(t *testing.T) {
		require.NoError(t, mr.Set("buswatch:snapshot:bad", "not-json"))
		_, err := store.Load(context.Background(), "bad")
		assert.True(t, domain.IsDataCorruption(err))
	})

	t.Run("connection failure is not corruption", func(t *testing.T) {
		mr.SetError("LOADING")
		defer mr.SetError("")
		_, err := store.Load(context.Background(), "a")
		require.Error(t, err)
		assert.False(t, domain.IsDataCorruption(err))
	})
}

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestGormSnapshotRepository_Load(t *testing.T) {
	db, mock := newMockGorm(t)
	store := NewGormSnapshotRepository(db)
	selectSQL := regexp.QuoteMeta(`SELECT * FROM "journey_snapshots" WHERE journey_id = $1`)

	data, err := encodeListings(sampleListings())
	require.NoError(t, err)

	mock.ExpectQuery(selectSQL).
		WillReturnRows(sqlmock.NewRows([]string{"journey_id", "listings", "updated_at"}).AddRow("a", string(data), time.Now()))
	got, err := store.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, sampleListings(), got)

	mock.ExpectQuery(selectSQL).
		WillReturnRows(sqlmock.NewRows([]string{"journey_id", "listings", "updated_at"}))
	got, err = store.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	mock.ExpectQuery(selectSQL).
		WillReturnRows(sqlmock.NewRows([]string{"journey_id", "listings", "updated_at"}).AddRow("bad", "{oops", time.Now()))
	_, err = store.Load(context.Background(), "bad")
	assert.True(t, domain.IsDataCorruption(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSnapshotRepository_SaveUpserts(t *testing.T) {
	db, mock := newMockGorm(t)
	store := NewGormSnapshotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "journey_snapshots"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT ("journey_id") DO UPDATE SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), "a", sampleListings()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
