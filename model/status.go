package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// StatusCategory classifies an agreement by time to expiry
type StatusCategory string

const (
	StatusActiveIndefinite StatusCategory = "active-indefinite"
	StatusNoEndDate        StatusCategory = "no-end-date"
	StatusExpired          StatusCategory = "expired"
	StatusCritical         StatusCategory = "critical"
	StatusWarning          StatusCategory = "warning"
	StatusHealthy          StatusCategory = "healthy"
)

const (
	CriticalDays = 30
	WarningDays  = 90
)

// DateLayout is the storage format of start and end dates
const DateLayout = "2006-01-02"

// Status is the evaluated expiry state of an agreement
type Status struct {
	Category StatusCategory `json:"category"`
	Label    string         `json:"label"`
}

// ParseDate parses a stored date. Date-only values are midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// DaysUntil returns the whole days from now until endDate, rounded up.
// Nil means there is no usable end date.
func DaysUntil(endDate *string, now time.Time) *int {
	if endDate == nil {
		return nil
	}
	end, ok := ParseDate(*endDate)
	if !ok {
		return nil
	}
	days := int(math.Ceil(float64(end.Sub(now)) / float64(24*time.Hour)))
	return &days
}

// RemainingDays is DaysUntil for definite agreements and nil for
// agreements active until terminated.
func RemainingDays(a *Agreement, now time.Time) *int {
	if a.ActiveUntilTerminated {
		return nil
	}
	return DaysUntil(a.EndDate, now)
}

// StatusOf evaluates the expiry status of a
func StatusOf(a *Agreement, now time.Time) Status {
	if a.ActiveUntilTerminated {
		return Status{Category: StatusActiveIndefinite, Label: "Active until terminated"}
	}
	days := DaysUntil(a.EndDate, now)
	if days == nil {
		return Status{Category: StatusNoEndDate, Label: "No end date"}
	}
	return statusForDays(*days)
}

func statusForDays(days int) Status {
	label := strconv.Itoa(days) + " days left"
	switch {
	case days < 0:
		return Status{Category: StatusExpired, Label: "Expired"}
	case days <= CriticalDays:
		return Status{Category: StatusCritical, Label: label}
	case days <= WarningDays:
		return Status{Category: StatusWarning, Label: label}
	default:
		return Status{Category: StatusHealthy, Label: label}
	}
}
