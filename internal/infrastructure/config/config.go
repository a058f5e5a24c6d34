package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	"buswatch-service/pkg/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Snapshot backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Journeys
	JourneysFile  string
	CheckSchedule string
	Journeys      []entity.Journey

	// Fetcher
	SearchBaseURL string
	UserAgent     string
	FetchTimeout  time.Duration

	// Notifier
	NotifyTimeout       time.Duration
	NotifyFailurePolicy string

	// Snapshot store
	SnapshotBackend          string
	SnapshotDir              string
	SnapshotCorruptionPolicy string

	// Redis
	RedisURL string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresDSN string

	// Telegram
	TelegramBotToken string
	TelegramAPIURL   string

	// Gmail
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	GmailSender       string
}

// LoadConfig loads configuration from environment variables and the journeys file
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		JourneysFile:  getEnv("JOURNEYS_FILE", "journeys.yaml"),
		CheckSchedule: getEnv("CHECK_SCHEDULE", "@every 10m"),

		SearchBaseURL: getEnv("SEARCH_BASE_URL", "https://www.shohoz.com/booking/bus/search"),
		UserAgent:     getEnv("HTTP_USER_AGENT", "buswatch/1.0"),
		FetchTimeout:  time.Duration(getEnvAsInt("FETCH_TIMEOUT", 60)) * time.Second,

		NotifyTimeout:       time.Duration(getEnvAsInt("NOTIFY_TIMEOUT", 30)) * time.Second,
		NotifyFailurePolicy: strings.ToLower(getEnv("NOTIFY_FAILURE_POLICY", "persist")),

		SnapshotBackend:          strings.ToLower(getEnv("SNAPSHOT_BACKEND", BackendFile)),
		SnapshotDir:              getEnv("SNAPSHOT_DIR", "data"),
		SnapshotCorruptionPolicy: strings.ToLower(getEnv("SNAPSHOT_CORRUPTION_POLICY", "rebaseline")),

		RedisURL: getEnv("REDIS_URL", ""),

		MongoURI:      getEnv("MONGODB_DSN", ""),
		MongoDB:       getEnv("MONGO_DB", "buswatch"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailSender:       getEnv("GMAIL_SENDER", ""),
	}

	data, err := os.ReadFile(config.JourneysFile)
	if err != nil {
		return nil, domain.ConfigError{Field: "JOURNEYS_FILE", Msg: fmt.Sprintf("cannot read %s", config.JourneysFile), Err: err}
	}
	journeys, err := ParseJourneys(data)
	if err != nil {
		return nil, err
	}
	config.Journeys = journeys

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks option values and that every transport used by a journey
// has its credentials.
func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return domain.ConfigError{Field: "FETCH_TIMEOUT", Msg: "must be positive"}
	}
	if c.NotifyTimeout <= 0 {
		return domain.ConfigError{Field: "NOTIFY_TIMEOUT", Msg: "must be positive"}
	}

	switch c.NotifyFailurePolicy {
	case "persist", "resend":
	default:
		return domain.ConfigError{Field: "NOTIFY_FAILURE_POLICY", Msg: fmt.Sprintf("unknown policy %q", c.NotifyFailurePolicy)}
	}

	switch c.SnapshotCorruptionPolicy {
	case "rebaseline", "reset":
	default:
		return domain.ConfigError{Field: "SNAPSHOT_CORRUPTION_POLICY", Msg: fmt.Sprintf("unknown policy %q", c.SnapshotCorruptionPolicy)}
	}

	switch c.SnapshotBackend {
	case BackendFile:
		if c.SnapshotDir == "" {
			return domain.ConfigError{Field: "SNAPSHOT_DIR", Msg: "required for file backend"}
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return domain.ConfigError{Field: "REDIS_URL", Msg: "required for redis backend"}
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return domain.ConfigError{Field: "MONGODB_DSN", Msg: "required for mongo backend"}
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return domain.ConfigError{Field: "POSTGRES_DSN", Msg: "required for postgres backend"}
		}
	default:
		return domain.ConfigError{Field: "SNAPSHOT_BACKEND", Msg: fmt.Sprintf("unknown backend %q", c.SnapshotBackend)}
	}

	for _, j := range c.Journeys {
		switch TargetKind(j.Target) {
		case TargetTelegram:
			if c.TelegramBotToken == "" {
				return domain.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Msg: fmt.Sprintf("required by journey %s", j.ID)}
			}
		case TargetEmail:
			if c.GmailClientID == "" || c.GmailClientSecret == "" || c.GmailRefreshToken == "" {
				return domain.ConfigError{Field: "GMAIL_REFRESH_TOKEN", Msg: fmt.Sprintf("gmail credentials required by journey %s", j.ID)}
			}
		case TargetLog:
		default:
			return domain.ConfigError{Field: "journeys.target", Msg: fmt.Sprintf("journey %s: unsupported target %q", j.ID, j.Target)}
		}
	}

	return nil
}

// Target kinds
const (
	TargetTelegram = "telegram"
	TargetEmail    = "email"
	TargetLog      = "log"
)

// TargetKind returns the transport a target routes to, or "" if none does.
// A target without a scheme is a Telegram chat id.
func TargetKind(target string) string {
	scheme, rest, ok := strings.Cut(target, ":")
	if !ok {
		if strings.TrimSpace(target) == "" {
			return ""
		}
		return TargetTelegram
	}
	if strings.TrimSpace(rest) == "" {
		return ""
	}
	switch scheme {
	case TargetTelegram, TargetEmail, TargetLog:
		return scheme
	}
	return ""
}

// UsesTarget reports whether any journey routes to the given transport
func (c *Config) UsesTarget(kind string) bool {
	for _, j := range c.Journeys {
		if TargetKind(j.Target) == kind {
			return true
		}
	}
	return false
}

type journeysFile struct {
	Journeys []journeyEntry `yaml:"journeys"`
}

type journeyEntry struct {
	ID     string `yaml:"id"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Date   string `yaml:"date"`
	Class  string `yaml:"class"`
	Target string `yaml:"target"`
}

var journeyIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseJourneys decodes and validates the journeys YAML document
func ParseJourneys(data []byte) ([]entity.Journey, error) {
	var file journeysFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.ConfigError{Field: "journeys", Msg: "invalid YAML", Err: err}
	}
	if len(file.Journeys) == 0 {
		return nil, domain.ConfigError{Field: "journeys", Msg: "at least one journey is required"}
	}

	seen := make(map[string]struct{}, len(file.Journeys))
	journeys := make([]entity.Journey, 0, len(file.Journeys))
	for i, e := range file.Journeys {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, domain.ConfigError{Field: fmt.Sprintf("journeys[%d].id", i), Msg: "required"}
		}
		if !journeyIDPattern.MatchString(id) {
			return nil, domain.ConfigError{Field: fmt.Sprintf("journeys[%d].id", i), Msg: fmt.Sprintf("%q may only contain letters, digits, '-' and '_'", id)}
		}
		if _, dup := seen[id]; dup {
			return nil, domain.ConfigError{Field: fmt.Sprintf("journeys[%d].id", i), Msg: fmt.Sprintf("duplicate id %q", id)}
		}
		seen[id] = struct{}{}

		from, to := strings.TrimSpace(e.From), strings.TrimSpace(e.To)
		if from == "" || to == "" {
			return nil, domain.ConfigError{Field: fmt.Sprintf("journeys[%d]", i), Msg: fmt.Sprintf("journey %s: from and to are required", id)}
		}

		date, err := utils.ParseJourneyDate(e.Date)
		if err != nil {
			return nil, domain.ConfigError{Field: fmt.Sprintf("journeys[%d].date", i), Msg: fmt.Sprintf("journey %s: %v", id, err), Err: err}
		}

		class, err := entity.ParseSeatClass(e.Class)
		if err != nil {
			return nil, domain.ConfigError{Field: fmt.Sprintf("journeys[%d].class", i), Msg: fmt.Sprintf("journey %s: %v", id, err), Err: err}
		}

		target := strings.TrimSpace(e.Target)
		if target == "" {
			return nil, domain.ConfigError{Field: fmt.Sprintf("journeys[%d].target", i), Msg: fmt.Sprintf("journey %s: required", id)}
		}

		journeys = append(journeys, entity.Journey{
			ID:     id,
			From:   from,
			To:     to,
			Date:   date,
			Class:  class,
			Target: target,
		})
	}

	return journeys, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
