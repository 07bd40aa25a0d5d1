package ui

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelerate/internal/config"
	"excelerate/internal/record"
	"excelerate/internal/storage"
)

type fakeStore struct {
	writes   [][]record.Record
	writeErr error
	read     []record.Record
	readErr  error
}

func (f *fakeStore) WriteAll(records []record.Record) error {
	f.writes = append(f.writes, records)
	return f.writeErr
}

func (f *fakeStore) ReadAll() ([]record.Record, error) {
	return f.read, f.readErr
}

type fakeReminders struct {
	calls int
}

func (f *fakeReminders) ScheduleDaily([]record.Record, time.Time) error {
	f.calls++
	return nil
}

func testConfig() config.Config {
	return config.Config{
		HideStaleCompleted: true,
		SortKey:            "sl_no",
		SortDirection:      "asc",
		Locale:             "en",
		Keys: config.Keymap{
			Quit: "q", Add: "a", Up: "k", Down: "j", Toggle: " ", Delete: "d",
			Confirm: "enter", Cancel: "esc", Edit: "e", Reload: "r",
			SortNext: "s", SortDirection: "S", UpcomingOnly: "u",
		},
	}
}

func newTestModel(store *fakeStore, records []record.Record) Model {
	m := New(store, nil, testConfig(), records, nil)
	m.now = func() time.Time { return time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC) }
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()

	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func sample() []record.Record {
	return []record.Record{
		{SequenceNumber: 1, Item: "a", Date: "2025-01-11T00:00:00.000Z"},
		{SequenceNumber: 2, Item: "b", Date: "2025-02-01T00:00:00.000Z"},
		{SequenceNumber: 3, Item: "c"},
	}
}

func Test_Delete_Persists_Renumbered_Collection_When_Confirmed(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newTestModel(store, sample())

	m = press(t, m, "j", "d", "y")

	require.Len(t, store.writes, 1)
	written := store.writes[0]
	require.Len(t, written, 2)
	assert.Equal(t, "a", written[0].Item)
	assert.Equal(t, 1, written[0].SequenceNumber)
	assert.Equal(t, "c", written[1].Item)
	assert.Equal(t, 2, written[1].SequenceNumber)
	assert.Equal(t, "Deleted record", m.status)
}

func Test_Delete_Does_Nothing_When_Declined(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newTestModel(store, sample())

	m = press(t, m, "d", "n")

	assert.Empty(t, store.writes)
	assert.Len(t, m.records, 3)
}

func Test_Toggle_Persists_Completed_Flag(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newTestModel(store, sample())

	m = press(t, m, " ")

	require.Len(t, store.writes, 1)
	assert.True(t, store.writes[0][0].Completed)
	assert.True(t, m.records[0].Completed)
}

func Test_Add_Normalizes_Date_And_Persists(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newTestModel(store, sample())

	m = press(t, m, "a", "n", "e", "w", "enter", "enter", "2", "0", "2", "5", "-", "0", "3", "-", "0", "1", "enter")

	require.Len(t, store.writes, 1)
	added := store.writes[0][3]
	assert.Equal(t, record.Record{SequenceNumber: 4, Item: "new", Date: "2025-03-01T00:00:00.000Z"}, added)
	assert.Nil(t, m.form)
}

func Test_Add_Rejects_Invalid_Date_Without_Writing(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := newTestModel(store, sample())

	m = press(t, m, "a", "x", "enter", "enter", "z", "z", "enter")

	assert.Empty(t, store.writes)
	assert.NotNil(t, m.form)
	assert.Contains(t, m.status, "date invalid")
}

func Test_Failed_Write_Raises_Alert_And_Keeps_Edit(t *testing.T) {
	t.Parallel()

	store := &fakeStore{writeErr: storage.ErrWrite}
	m := newTestModel(store, sample())

	m = press(t, m, " ")

	assert.True(t, m.saveFailed)
	assert.Contains(t, m.status, "save failed")
	assert.True(t, m.records[0].Completed)
}

func Test_Upcoming_Toggle_Filters_Visible_Records(t *testing.T) {
	t.Parallel()

	m := newTestModel(&fakeStore{}, sample())

	m = press(t, m, "u")

	rows := m.visible()
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Item)
}

func Test_New_Shows_Distinct_Status_For_Permission_And_Read_Errors(t *testing.T) {
	t.Parallel()

	denied := New(&fakeStore{}, nil, testConfig(), nil, storage.ErrPermissionDenied)
	assert.Equal(t, "Storage permission denied", denied.status)

	broken := New(&fakeStore{}, nil, testConfig(), nil, errors.Join(storage.ErrRead, errors.New("zip: not a valid zip file")))
	assert.Contains(t, broken.status, "Failed to load data")
}

func Test_Reminders_Are_Rescheduled_After_Save(t *testing.T) {
	t.Parallel()

	reminders := &fakeReminders{}
	m := New(&fakeStore{}, reminders, testConfig(), sample(), nil)
	require.Equal(t, 1, reminders.calls)

	press(t, m, " ")

	assert.Equal(t, 2, reminders.calls)
}

func Test_Add_Does_Not_Write_When_Existing_File_Could_Not_Be_Read(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	loadErr := fmt.Errorf("%w: open data.xlsx: %w", storage.ErrRead, errors.New("zip: not a valid zip file"))
	m := New(store, nil, testConfig(), []record.Record{}, loadErr)

	m = press(t, m, "a", "x", "enter", "enter", "enter")
	m = press(t, m, " ")

	assert.Empty(t, store.writes)
	assert.Empty(t, m.records)
	assert.Contains(t, m.status, "Not saved")
}

func Test_Add_Does_Not_Write_When_Permission_Was_Denied(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := New(store, nil, testConfig(), []record.Record{}, storage.ErrPermissionDenied)

	m = press(t, m, "a", "x", "enter", "enter", "enter")

	assert.Empty(t, store.writes)
}

func Test_Add_Creates_File_When_Load_Found_No_File(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	loadErr := fmt.Errorf("%w: open data.xlsx: %w", storage.ErrRead, os.ErrNotExist)
	m := New(store, nil, testConfig(), []record.Record{}, loadErr)

	m = press(t, m, "a", "x", "enter", "enter", "enter")

	require.Len(t, store.writes, 1)
	assert.Equal(t, []record.Record{{SequenceNumber: 1, Item: "x"}}, store.writes[0])
	assert.Equal(t, "Added record", m.status)
}

func Test_Reload_Allows_Writes_When_File_Reads_Again(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m := New(store, nil, testConfig(), []record.Record{}, fmt.Errorf("%w: locked", storage.ErrRead))

	store.read = sample()
	m = press(t, m, "r", " ")

	require.Len(t, store.writes, 1)
	assert.True(t, store.writes[0][0].Completed)
}
