package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJourneys = `
journeys:
  - id: bogura-dhaka
    from: Bogura
    to: Dhaka
    date: 2024-06-22
    class: ANY
    target: "telegram:6913644510"
  - id: dhaka_sylhet
    from: Dhaka
    to: Sylhet
    date: 01-Jul-2024
    class: Non AC
    target: "log:dry-run"
`

func TestParseJourneys(t *testing.T) {
	journeys, err := ParseJourneys([]byte(sampleJourneys))
	require.NoError(t, err)
	require.Len(t, journeys, 2)

	assert.Equal(t, entity.Journey{
		ID:     "bogura-dhaka",
		From:   "Bogura",
		To:     "Dhaka",
		Date:   time.Date(2024, time.June, 22, 0, 0, 0, 0, time.UTC),
		Class:  entity.ClassAny,
		Target: "telegram:6913644510",
	}, journeys[0])
	assert.Equal(t, entity.ClassNonAC, journeys[1].Class)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), journeys[1].Date)
}

func TestParseJourneys_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"empty", "journeys: []", "journeys"},
		{"bad yaml", "journeys: [", "journeys"},
		{"missing id", "journeys:\n  - from: A\n    to: B\n    date: 2024-06-22\n    target: log:x", "journeys[0].id"},
		{"bad id", "journeys:\n  - id: a/b\n    from: A\n    to: B\n    date: 2024-06-22\n    target: log:x", "journeys[0].id"},
		{"duplicate id", "journeys:\n  - {id: a, from: A, to: B, date: 2024-06-22, target: 'log:x'}\n  - {id: a, from: A, to: C, date: 2024-06-22, target: 'log:x'}", "journeys[1].id"},
		{"missing to", "journeys:\n  - {id: a, from: A, date: 2024-06-22, target: 'log:x'}", "journeys[0]"},
		{"bad date", "journeys:\n  - {id: a, from: A, to: B, date: 22/06/2024, target: 'log:x'}", "journeys[0].date"},
		{"bad class", "journeys:\n  - {id: a, from: A, to: B, date: 2024-06-22, class: SLEEPER, target: 'log:x'}", "journeys[0].class"},
		{"missing target", "journeys:\n  - {id: a, from: A, to: B, date: 2024-06-22}", "journeys[0].target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJourneys([]byte(tt.yaml))
			require.Error(t, err)

			var cfgErr domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestTargetKind(t *testing.T) {
	assert.Equal(t, TargetTelegram, TargetKind("telegram:1"))
	assert.Equal(t, TargetTelegram, TargetKind("6913644510"))
	assert.Equal(t, TargetEmail, TargetKind("email:me@example.com"))
	assert.Equal(t, TargetLog, TargetKind("log:dry"))
	assert.Equal(t, "", TargetKind("sms:123"))
	assert.Equal(t, "", TargetKind("email:"))
	assert.Equal(t, "", TargetKind(""))
}

func writeJourneys(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journeys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("JOURNEYS_FILE", writeJourneys(t, sampleJourneys))
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("FETCH_TIMEOUT", "15")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Len(t, cfg.Journeys, 2)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "@every 10m", cfg.CheckSchedule)
	assert.Equal(t, BackendFile, cfg.SnapshotBackend)
	assert.Equal(t, "persist", cfg.NotifyFailurePolicy)
	assert.Equal(t, "rebaseline", cfg.SnapshotCorruptionPolicy)
	assert.True(t, cfg.UsesTarget(TargetTelegram))
	assert.False(t, cfg.UsesTarget(TargetEmail))
}

func TestLoadConfig_MissingJourneysFile(t *testing.T) {
	t.Setenv("JOURNEYS_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.True(t, domain.IsConfig(err))
}

func TestLoadConfig_MissingTelegramToken(t *testing.T) {
	t.Setenv("JOURNEYS_FILE", writeJourneys(t, sampleJourneys))
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := LoadConfig()
	var cfgErr domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "TELEGRAM_BOT_TOKEN", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			FetchTimeout:             time.Second,
			NotifyTimeout:            time.Second,
			NotifyFailurePolicy:      "persist",
			SnapshotCorruptionPolicy: "rebaseline",
			SnapshotBackend:          BackendFile,
			SnapshotDir:              "data",
			Journeys:                 []entity.Journey{{ID: "a", Target: "log:x"}},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"notify policy", func(c *Config) { c.NotifyFailurePolicy = "retry" }, "NOTIFY_FAILURE_POLICY"},
		{"corruption policy", func(c *Config) { c.SnapshotCorruptionPolicy = "ignore" }, "SNAPSHOT_CORRUPTION_POLICY"},
		{"backend", func(c *Config) { c.SnapshotBackend = "s3" }, "SNAPSHOT_BACKEND"},
		{"redis url", func(c *Config) { c.SnapshotBackend = BackendRedis }, "REDIS_URL"},
		{"mongo dsn", func(c *Config) { c.SnapshotBackend = BackendMongo }, "MONGODB_DSN"},
		{"postgres dsn", func(c *Config) { c.SnapshotBackend = BackendPostgres }, "POSTGRES_DSN"},
		{"fetch timeout", func(c *Config) { c.FetchTimeout = 0 }, "FETCH_TIMEOUT"},
		{"gmail creds", func(c *Config) { c.Journeys[0].Target = "email:me@example.com" }, "GMAIL_REFRESH_TOKEN"},
		{"unknown target", func(c *Config) { c.Journeys[0].Target = "sms:1" }, "journeys.target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)

			var cfgErr domain.ConfigError
			require.ErrorAs(t, c.Validate(), &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
