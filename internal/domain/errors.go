package domain

import (
	"errors"
	"fmt"
)

// Fetch failure reasons.
const (
	ReasonTimeout       = "timeout"
	ReasonNavigation    = "navigation"
	ReasonPageStructure = "page_structure"
)

// FetchError reports a listing fetch that did not produce a trustworthy result.
type FetchError struct {
	JourneyID string
	Reason    string
	Err       error
}

func (e FetchError) Error() string {
	msg := fmt.Sprintf("fetch journey %s", e.JourneyID)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e FetchError) Unwrap() error { return e.Err }

// DataCorruptionError reports a persisted snapshot that cannot be decoded.
type DataCorruptionError struct {
	JourneyID string
	Err       error
}

func (e DataCorruptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("snapshot for journey %s is corrupted", e.JourneyID)
	}
	return fmt.Sprintf("snapshot for journey %s is corrupted: %v", e.JourneyID, e.Err)
}

func (e DataCorruptionError) Unwrap() error { return e.Err }

// NotifyError reports a failed notification dispatch.
type NotifyError struct {
	JourneyID string
	Target    string
	Err       error
}

func (e NotifyError) Error() string {
	msg := "notify"
	if e.JourneyID != "" {
		msg += " journey " + e.JourneyID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e NotifyError) Unwrap() error { return e.Err }

// ConfigError reports invalid or missing startup configuration. Always fatal.
type ConfigError struct {
	Field string
	Msg   string
	Err   error
}

func (e ConfigError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	case e.Msg != "":
		return "config: " + e.Msg
	case e.Err != nil:
		return "config: " + e.Err.Error()
	default:
		return "invalid configuration"
	}
}

func (e ConfigError) Unwrap() error { return e.Err }

func IsFetch(err error) bool {
	var target FetchError
	return errors.As(err, &target)
}

func IsDataCorruption(err error) bool {
	var target DataCorruptionError
	return errors.As(err, &target)
}

func IsNotify(err error) bool {
	var target NotifyError
	return errors.As(err, &target)
}

func IsConfig(err error) bool {
	var target ConfigError
	return errors.As(err, &target)
}
