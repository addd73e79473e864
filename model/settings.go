package model

const (
	DefaultReminderDays1 = 90
	DefaultReminderDays2 = 30
)

// Settings holds the reminder configuration singleton
type Settings struct {
	Email         string `json:"email"`
	ReminderDays1 int    `json:"reminderDays1"`
	ReminderDays2 int    `json:"reminderDays2"`
}

// DefaultSettings returns the settings used before any have been saved
func DefaultSettings() Settings {
	return Settings{
		ReminderDays1: DefaultReminderDays1,
		ReminderDays2: DefaultReminderDays2,
	}
}
