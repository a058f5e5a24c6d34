package repository

import (
	"context"
	"strings"

	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"
)

const logScheme = "log:"

// LogRepository writes notifications to the service log instead of sending them.
// Useful for dry runs of a new journey.
type LogRepository struct {
	logger logger.Logger
}

// NewLogRepository creates a log-only messenger
func NewLogRepository(logger logger.Logger) repository.MessengerRepository {
	return &LogRepository{logger: logger}
}

// CanHandle accepts "log:<label>" targets
func (r *LogRepository) CanHandle(target string) bool {
	return strings.HasPrefix(target, logScheme)
}

// Send logs the message body
func (r *LogRepository) Send(ctx context.Context, target, text string) error {
	r.logger.Info("Notification (dry run)",
		"label", strings.TrimPrefix(target, logScheme),
		"message", text)
	return nil
}
