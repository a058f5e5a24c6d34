// internal/domain/entity/journey.go
package entity

import (
	"fmt"
	"strings"
	"time"
)

// SeatClass is both a listing's class label and a journey's class filter.
type SeatClass string

const (
	ClassAny   SeatClass = "ANY"
	ClassAC    SeatClass = "AC"
	ClassNonAC SeatClass = "NON_AC"
)

// ParseSeatClass accepts ANY, AC, NON_AC and the upstream spelling "Non AC".
func ParseSeatClass(raw string) (SeatClass, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch SeatClass(norm) {
	case ClassAny, "":
		return ClassAny, nil
	case ClassAC:
		return ClassAC, nil
	case ClassNonAC:
		return ClassNonAC, nil
	}
	return "", fmt.Errorf("unknown seat class %q", raw)
}

// ClassFromDescription derives a listing's class from the upstream bus description.
func ClassFromDescription(desc string) SeatClass {
	if strings.Contains(desc, "Non AC") {
		return ClassNonAC
	}
	return ClassAC
}

// Allows reports whether a listing of class c passes the filter f.
func (f SeatClass) Allows(c SeatClass) bool {
	return f == ClassAny || f == c
}

// Label is the human-readable form used in notifications.
func (c SeatClass) Label() string {
	if c == ClassNonAC {
		return "Non AC"
	}
	return string(c)
}

// Journey is one tracked origin/destination/date query. Immutable once loaded.
type Journey struct {
	ID     string
	From   string
	To     string
	Date   time.Time
	Class  SeatClass
	Target string
}
