package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/ansher/agreementtracker/model"
)

// DueReminder is one agreement that needs at least one reminder in a sweep
type DueReminder struct {
	Agreement *model.Agreement
	DaysLeft  int
	First     bool
	Second    bool
}

// PlanReminders decides which reminders are due. Both thresholds are checked
// independently, so one agreement can be due for both in the same sweep.
func PlanReminders(agreements []*model.Agreement, settings model.Settings, now time.Time) ([]DueReminder, error) {
	if strings.TrimSpace(settings.Email) == "" {
		return nil, fmt.Errorf("%w: set a notification email address first", ErrConfiguration)
	}

	var due []DueReminder
	for _, a := range agreements {
		days := model.RemainingDays(a, now)
		if days == nil || *days < 0 {
			continue
		}
		r := DueReminder{
			Agreement: a,
			DaysLeft:  *days,
			First:     !a.ReminderSent1 && *days <= settings.ReminderDays1,
			Second:    !a.ReminderSent2 && *days <= settings.ReminderDays2,
		}
		if r.First || r.Second {
			due = append(due, r)
		}
	}
	return due, nil
}

// WriteResult is the outcome of persisting one swept agreement
type WriteResult struct {
	AgreementID string `json:"agreementId"`
	Error       string `json:"error,omitempty"`

	Err error `json:"-"`
}

// SweepResult reports what a reminder sweep did
type SweepResult struct {
	// Sent is the number of drafts triggered; zero means nothing was due
	Sent         int           `json:"sent"`
	Drafts       []Draft       `json:"drafts"`
	Writes       []WriteResult `json:"writes"`
	NotifyErrors []string      `json:"notifyErrors,omitempty"`
}

// Failed reports whether any notification or write failed
func (r *SweepResult) Failed() bool {
	if len(r.NotifyErrors) > 0 {
		return true
	}
	for _, w := range r.Writes {
		if w.Err != nil {
			return true
		}
	}
	return false
}
