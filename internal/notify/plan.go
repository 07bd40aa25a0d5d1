// Package notify plans the daily upcoming-records reminder and keeps it in a
// small SQLite outbox that a platform notifier drains. Delivery happens
// elsewhere.
package notify

import (
	"fmt"
	"strings"
	"time"

	"excelerate/internal/datecodec"
	"excelerate/internal/record"
	"excelerate/internal/view"
)

const (
	// DailyReminderID is fixed so rescheduling replaces the previous reminder.
	DailyReminderID = "daily-upcoming"
	DefaultHour     = 9
	reminderTitle   = "You have upcoming events!"
	repeatDaily     = "day"
)

type Reminder struct {
	ID      string
	Title   string
	Message string
	FireAt  time.Time
	Repeat  string
}

// Plan builds the daily reminder for records that are upcoming and not yet
// completed. ok is false when there is nothing to remind about.
func Plan(records []record.Record, now time.Time, hour int) (Reminder, bool) {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		if r.Completed || !view.IsUpcoming(r.Date, now) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s due on %s", r.Item, datecodec.ToDisplayString(r.Date)))
	}
	if len(lines) == 0 {
		return Reminder{}, false
	}
	return Reminder{
		ID:      DailyReminderID,
		Title:   reminderTitle,
		Message: strings.Join(lines, "\n"),
		FireAt:  nextFire(now, hour),
		Repeat:  repeatDaily,
	}, true
}

// nextFire is today at hour:00 in now's location, or tomorrow if that moment
// has already passed.
func nextFire(now time.Time, hour int) time.Time {
	if hour < 0 || hour > 23 {
		hour = DefaultHour
	}
	y, m, d := now.Date()
	at := time.Date(y, m, d, hour, 0, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}
