package models

import "time"

// OneShotLayout is how one-shot reminder instants are stored in the registry file.
const OneShotLayout = "2006-01-02_15:04:05"

// BreathReminder is a per-user reminder. Recurring reminders carry an "HH:MM"
// Time; one-shot reminders carry an instant in OneShotLayout.
type BreathReminder struct {
	UserID       int64  `json:"user_id"`
	ChatID       int64  `json:"chat_id"`
	Time         string `json:"time"`
	LastSentDate string `json:"last_sent_date,omitempty"`
	OneShot      bool   `json:"one_shot"`
}

// DueAt reports the instant of a one-shot reminder in loc.
func (r BreathReminder) DueAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(OneShotLayout, r.Time, loc)
}
