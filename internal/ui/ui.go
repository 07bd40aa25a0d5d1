package ui

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"excelerate/internal/config"
	"excelerate/internal/datecodec"
	"excelerate/internal/record"
	"excelerate/internal/storage"
	"excelerate/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeForm
)

// Persister is the part of the store the model writes through.
type Persister interface {
	WriteAll(records []record.Record) error
	ReadAll() ([]record.Record, error)
}

// ReminderScheduler is told about the collection after every load and save.
type ReminderScheduler interface {
	ScheduleDaily(records []record.Record, now time.Time) error
}

type formState struct {
	seq         int
	item        string
	description string
	date        string
	index       int
}

type Model struct {
	store        Persister
	reminders    ReminderScheduler
	cfg          config.Config
	records      []record.Record
	loadErr      error
	writeLocked  bool
	saveFailed   bool
	cursor       int
	mode         mode
	input        textinput.Model
	status       string
	confirmDel   bool
	pendingDel   *record.Record
	form         *formState
	sortKey      view.Key
	sortDir      view.Direction
	upcomingOnly bool
	locale       language.Tag
	now          func() time.Time
}

// New builds the model around an already loaded collection. loadErr is the
// status returned by the store's Load.
func New(store Persister, reminders ReminderScheduler, cfg config.Config, records []record.Record, loadErr error) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	key, err := view.ParseKey(cfg.SortKey)
	if err != nil {
		key = view.KeySequence
	}
	dir, err := view.ParseDirection(cfg.SortDirection)
	if err != nil {
		dir = view.Asc
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.English
	}

	m := Model{
		store:        store,
		reminders:    reminders,
		cfg:          cfg,
		records:      records,
		loadErr:      loadErr,
		writeLocked:  blocksWrites(loadErr),
		status:       "Press 'a' to add, space to complete, 'd' to delete.",
		input:        ti,
		mode:         modeList,
		sortKey:      key,
		sortDir:      dir,
		upcomingOnly: cfg.UpcomingOnly,
		locale:       tag,
		now:          time.Now,
	}
	if loadErr != nil {
		m.status = loadErrorText(loadErr)
	}
	m.schedule()
	return m
}

func Run(store *storage.Store, gate storage.PermissionGate, reminders ReminderScheduler, cfg config.Config) error {
	records, err := store.Load(gate)
	if err != nil {
		log.Printf("load %s: %v", store.Path(), err)
	}
	m := New(store, reminders, cfg, records, err)
	program := tea.NewProgram(m)
	_, err = program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.form != nil {
			return m.updateFormMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// visible is the sorted, filtered projection the list shows.
func (m Model) visible() []record.Record {
	sorted := view.SortByLocale(m.records, m.sortKey, m.sortDir, m.locale)
	return view.VisibleRecords(sorted, view.Options{
		HideStaleCompleted: m.cfg.HideStaleCompleted,
		UpcomingOnly:       m.upcomingOnly,
	}, m.now())
}

func (m Model) selected() (record.Record, bool) {
	rows := m.visible()
	if len(rows) == 0 {
		return record.Record{}, false
	}
	return rows[clampCursor(m.cursor, len(rows))], true
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.visible()))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.visible()))
	case m.cfg.Keys.Add:
		return m.startForm(record.Record{})
	case m.cfg.Keys.Edit:
		r, ok := m.selected()
		if !ok {
			m.status = "No records to edit"
			return m, nil
		}
		return m.startForm(r)
	case m.cfg.Keys.Toggle:
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.persist(record.ApplyToggle(m.records, r.SequenceNumber)) {
			m.status = "Toggled record"
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
	case m.cfg.Keys.Delete:
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &r
		m.status = fmt.Sprintf("Delete #%d \"%s\"? y/n", r.SequenceNumber, r.Item)
	case m.cfg.Keys.SortNext:
		m.sortKey = nextKey(m.sortKey)
		m.status = fmt.Sprintf("Sorted by %s %s", m.sortKey, m.sortDir)
	case m.cfg.Keys.SortDirection:
		m.sortDir = m.sortDir.Flip()
		m.status = fmt.Sprintf("Sorted by %s %s", m.sortKey, m.sortDir)
	case m.cfg.Keys.UpcomingOnly:
		m.upcomingOnly = !m.upcomingOnly
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		if m.upcomingOnly {
			m.status = "Showing upcoming only"
		} else {
			m.status = "Showing all records"
		}
	case m.cfg.Keys.Reload:
		records, err := m.store.ReadAll()
		m.records = records
		m.loadErr = err
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		if err != nil {
			log.Printf("reload: %v", err)
			m.status = loadErrorText(err)
		} else {
			m.status = fmt.Sprintf("Loaded %d records", len(records))
			m.schedule()
		}
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		// Renumbering follows what the user sees, so delete from the sorted order.
		sorted := view.SortByLocale(m.records, m.sortKey, m.sortDir, m.locale)
		if m.persist(record.ApplyDelete(sorted, m.pendingDel.SequenceNumber)) {
			m.status = "Deleted record"
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) startForm(r record.Record) (tea.Model, tea.Cmd) {
	m.form = &formState{
		seq:         r.SequenceNumber,
		item:        r.Item,
		description: r.Description,
		date:        formatDate(r.Date),
	}
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.input.Focus()
	m.mode = modeForm
	m.status = m.formPrompt()
	return m, nil
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		m.moveField(1)
		return m, nil
	case "shift+tab", "up":
		m.moveField(-1)
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= len(formFields())-1 {
			return m.saveForm()
		}
		m.moveField(1)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) moveField(delta int) {
	m.form.setCurrentValue(m.input.Value())
	m.form.index = wrapIndex(m.form.index+delta, len(formFields()))
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.status = m.formPrompt()
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	f := m.form
	item := strings.TrimSpace(f.item)
	if item == "" {
		m.status = "Item cannot be empty"
		return m, nil
	}
	date := strings.TrimSpace(f.date)
	in := datecodec.Absent()
	if date != "" {
		in = datecodec.Text(date)
		if datecodec.Normalize(in) == "" {
			m.status = fmt.Sprintf("date invalid: %q", date)
			return m, nil
		}
	}
	form := record.Form{Item: item, Description: strings.TrimSpace(f.description), Date: in}

	var next []record.Record
	if f.seq == 0 {
		next = record.ApplyAdd(m.records, form)
	} else {
		next = record.ApplyEdit(m.records, f.seq, form)
	}
	m.form = nil
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
	if m.persist(next) {
		if f.seq == 0 {
			m.status = "Added record"
		} else {
			m.status = "Record saved"
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	return m, nil
}

// persist adopts next and writes the whole collection. A failed write keeps the
// edit on screen but raises an alert, since it is not on disk. While the file
// on disk could not be read, nothing is written: the empty collection on screen
// would replace whatever the file holds.
func (m *Model) persist(next []record.Record) bool {
	if m.writeLocked {
		m.status = "Not saved: the data file could not be read. Fix it and press 'r' to reload."
		return false
	}
	m.records = next
	if err := m.store.WriteAll(next); err != nil {
		log.Printf("write: %v", err)
		m.saveFailed = true
		m.status = fmt.Sprintf("save failed: %v (your last edit may be lost)", err)
		return false
	}
	m.saveFailed = false
	m.loadErr = nil
	m.schedule()
	return true
}

func (m Model) schedule() {
	if m.reminders == nil || m.loadErr != nil {
		return
	}
	if err := m.reminders.ScheduleDaily(m.records, m.now()); err != nil {
		log.Printf("schedule reminders: %v", err)
	}
}

// blocksWrites reports whether a load failure leaves a file on disk that a
// write would clobber. A missing file is not one: the first save creates it.
func blocksWrites(err error) bool {
	return err != nil && !errors.Is(err, os.ErrNotExist)
}

func loadErrorText(err error) string {
	switch {
	case errors.Is(err, storage.ErrPermissionDenied):
		return "Storage permission denied"
	case errors.Is(err, storage.ErrRead):
		return fmt.Sprintf("Failed to load data: %v", err)
	default:
		return fmt.Sprintf("error: %v", err)
	}
}

func nextKey(k view.Key) view.Key {
	for i, key := range view.Keys {
		if key == k {
			return view.Keys[(i+1)%len(view.Keys)]
		}
	}
	return view.KeySequence
}

func formFields() []string {
	return []string{"item", "description", "date (YYYY-MM-DD)"}
}

func (fs formState) currentLabel() string {
	return formFields()[fs.index]
}

func (fs formState) currentValue() string {
	switch fs.index {
	case 0:
		return fs.item
	case 1:
		return fs.description
	case 2:
		return fs.date
	default:
		return ""
	}
}

func (fs *formState) setCurrentValue(v string) {
	switch fs.index {
	case 0:
		fs.item = v
	case 1:
		fs.description = v
	case 2:
		fs.date = v
	}
}

func (m Model) formPrompt() string {
	if m.form == nil {
		return ""
	}
	verb := "Adding"
	if m.form.seq != 0 {
		verb = fmt.Sprintf("Editing #%d:", m.form.seq)
	}
	return fmt.Sprintf("%s %s (field %d of %d). Enter to advance, tab to move, Esc to cancel.",
		verb, m.form.currentLabel(), m.form.index+1, len(formFields()))
}

func formatDate(canonical string) string {
	t, ok := datecodec.Parse(canonical)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
