package logger

import "github.com/robfig/cron/v3"

// CronLogger adapts Logger to robfig/cron's logger so job wrappers
// (Recover, SkipIfStillRunning) report through the service log.
type CronLogger struct {
	log Logger
}

// NewCronLogger wraps log for use with cron.WithLogger and cron job wrappers.
func NewCronLogger(log Logger) cron.Logger {
	return &CronLogger{log: log.With("component", "cron")}
}

// Info logs routine scheduler messages at debug level; cron is chatty.
func (c *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

// Error logs scheduler errors, including recovered panics.
func (c *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
