package notify

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"excelerate/internal/record"

	_ "modernc.org/sqlite"
)

// busyTimeout lets a notifier process read the outbox while the app writes it.
const busyTimeout = 5 * time.Second

// Outbox holds scheduled reminders until a notifier picks them up.
type Outbox struct {
	db *sql.DB
}

// Open opens, or creates, the reminder outbox at dbPath.
func Open(dbPath string) (*Outbox, error) {
	if dbPath == "" {
		return nil, errors.New("reminder outbox path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("reminder outbox dir: %w", err)
	}
	db, err := sql.Open("sqlite", outboxDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open reminder outbox %s: %w", dbPath, err)
	}
	// One writer; sqlite serializes the rest behind busy_timeout.
	db.SetMaxOpenConns(1)

	o := &Outbox{db: db}
	if err := o.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reminder outbox schema: %w", err)
	}
	return o, nil
}

func (o *Outbox) Close() error {
	if o == nil || o.db == nil {
		return nil
	}
	return o.db.Close()
}

func (o *Outbox) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS reminders (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	fire_at TEXT NOT NULL,
	repeat_every TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);`
	_, err := o.db.Exec(ddl)
	return err
}

// Schedule stores r, replacing any reminder with the same ID.
func (o *Outbox) Schedule(r Reminder) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := o.db.Exec(`INSERT INTO reminders (id, title, message, fire_at, repeat_every, updated_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title = excluded.title, message = excluded.message, fire_at = excluded.fire_at, repeat_every = excluded.repeat_every, updated_at = excluded.updated_at;`,
		r.ID, r.Title, r.Message, r.FireAt.UTC().Format(time.RFC3339), r.Repeat, now)
	return err
}

func (o *Outbox) Cancel(id string) error {
	_, err := o.db.Exec(`DELETE FROM reminders WHERE id = ?;`, id)
	return err
}

func (o *Outbox) Pending() ([]Reminder, error) {
	rows, err := o.db.Query(`SELECT id, title, message, fire_at, repeat_every FROM reminders ORDER BY fire_at, id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var r Reminder
		var fireAt string
		if err := rows.Scan(&r.ID, &r.Title, &r.Message, &fireAt, &r.Repeat); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339, fireAt); err == nil {
			r.FireAt = parsed
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Scheduler keeps the daily reminder in step with the record collection.
type Scheduler struct {
	Outbox *Outbox
	Hour   int
}

// ScheduleDaily replaces the daily reminder, or cancels it when no record is
// upcoming.
func (s Scheduler) ScheduleDaily(records []record.Record, now time.Time) error {
	r, ok := Plan(records, now, s.Hour)
	if !ok {
		return s.Outbox.Cancel(DailyReminderID)
	}
	return s.Outbox.Schedule(r)
}

// outboxDSN builds a file URI that creates the database on first use and
// waits out a concurrent reader instead of failing with SQLITE_BUSY.
func outboxDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	q := url.Values{}
	q.Set("mode", "rwc")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	return (&url.URL{Scheme: "file", Path: path, RawQuery: q.Encode()}).String()
}
