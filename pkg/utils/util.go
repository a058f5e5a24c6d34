package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConvertToAMPM turns a raw 24-hour "HH:MM" time into "h:MM AM/PM".
// Midnight is 12 AM and noon is 12 PM. Input that does not look like
// HH:MM is returned unchanged.
func ConvertToAMPM(raw string) string {
	hours, minutes, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || len(minutes) != 2 {
		return raw
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 23 {
		return raw
	}
	if m, err := strconv.Atoi(minutes); err != nil || m < 0 || m > 59 {
		return raw
	}

	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%s %s", h12, minutes, period)
}

// FormatJourneyDate formats a calendar date the way the search endpoint expects.
func FormatJourneyDate(date time.Time) string {
	return date.Format(DATE_LAYOUT)
}

// ParseJourneyDate accepts either 22-Jun-2024 or 2024-06-22 and returns
// the date at UTC midnight.
func ParseJourneyDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DATE_LAYOUT, ISO_DATE_LAYOUT} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want DD-Mon-YYYY or YYYY-MM-DD", raw)
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown escapes the characters Telegram's legacy Markdown treats as entities.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
