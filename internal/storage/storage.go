// Package storage reads and writes the record collection as a single-sheet
// spreadsheet workbook. Every call opens and closes the file; there is no
// locking, the last writer wins.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/xuri/excelize/v2"

	"excelerate/internal/datecodec"
	"excelerate/internal/record"
)

const (
	DefaultFileName = "data.xlsx"
	// DateFormat is the number format applied to every date cell on write.
	DateFormat = "dd/mm/yyyy"
	sheetName  = "Records"
	filePerms  = 0o644
)

var (
	ErrRead             = errors.New("read failed")
	ErrWrite            = errors.New("write failed")
	ErrPermissionDenied = errors.New("storage permission denied")
)

// PermissionGate reports whether the storage location may be accessed.
type PermissionGate interface {
	CheckPermission() bool
}

type Store struct {
	dir  string
	name string
}

func New(dir, fileName string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage dir is empty")
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultFileName
	}
	return &Store{dir: dir, name: fileName}, nil
}

func (s *Store) Path() string {
	return filepath.Join(s.dir, s.name)
}

// Load consults gate once and reads only when access is granted.
func (s *Store) Load(gate PermissionGate) ([]record.Record, error) {
	if gate != nil && !gate.CheckPermission() {
		return []record.Record{}, fmt.Errorf("%w: %s", ErrPermissionDenied, s.dir)
	}
	return s.ReadAll()
}

// ReadAll returns every row of the first sheet as a record. On failure it
// returns an empty collection together with an error wrapping ErrRead, so a
// caller can show "no data" while still telling a broken file from an empty one.
func (s *Store) ReadAll() ([]record.Record, error) {
	f, err := excelize.OpenFile(s.Path())
	if err != nil {
		return []record.Record{}, fmt.Errorf("%w: open %s: %w", ErrRead, s.Path(), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []record.Record{}, fmt.Errorf("%w: %s has no sheets", ErrRead, s.Path())
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return []record.Record{}, fmt.Errorf("%w: rows of %s: %w", ErrRead, sheet, err)
	}
	if len(rows) == 0 {
		return []record.Record{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}

	records := make([]record.Record, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		if blank(raw) {
			continue
		}
		row := make(record.Row, len(raw))
		for col, val := range raw {
			if col >= len(header) || header[col] == "" || val == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				continue
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				typ = excelize.CellTypeUnset
			}
			row[header[col]] = readCell(typ, val)
		}
		records = append(records, record.FromRow(row, len(records)))
	}
	// Edits and deletes address records by number, so hand-edited files with
	// repeated or skipped numbers are renumbered on the way in.
	return record.Renumber(records), nil
}

// WriteAll replaces the file with records. The workbook is rendered in memory
// and committed atomically, so a failed write leaves the previous file intact.
func (s *Store) WriteAll(records []record.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	header := make([]any, len(record.Columns))
	for i, name := range record.Columns {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("%w: header: %w", ErrWrite, err)
	}

	dateCells := make([]string, 0, len(records))
	for i, r := range records {
		row := record.ToRow(r)
		for col, name := range record.Columns {
			c, ok := row[name]
			if !ok {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWrite, err)
			}
			// Dates before serial 1 have no serial form and are kept as canonical text.
			if c.Kind == record.CellDate && !datecodec.HasSerial(c.Date) {
				c = record.TextCell(datecodec.Canonical(c.Date))
			}
			if err := f.SetCellValue(sheetName, axis, cellValue(c)); err != nil {
				return fmt.Errorf("%w: cell %s: %w", ErrWrite, axis, err)
			}
			if c.Kind == record.CellDate {
				dateCells = append(dateCells, axis)
			}
		}
	}
	if err := applyDateStyle(f, dateCells); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("%w: render workbook: %w", ErrWrite, err)
	}
	if err := atomic.WriteFile(s.Path(), bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.Path(), err)
	}
	// atomic.WriteFile leaves the temp file's 0600 mode on new files.
	if err := os.Chmod(s.Path(), filePerms); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrWrite, s.Path(), err)
	}
	return nil
}

// applyDateStyle marks date cells with a date number format. Without it the
// serial would be stored as a plain number and lose its date typing.
func applyDateStyle(f *excelize.File, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	format := DateFormat
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return fmt.Errorf("%w: date style: %w", ErrWrite, err)
	}
	for _, axis := range cells {
		if err := f.SetCellStyle(sheetName, axis, axis, style); err != nil {
			return fmt.Errorf("%w: style %s: %w", ErrWrite, axis, err)
		}
	}
	return nil
}

func cellValue(c record.Cell) any {
	switch c.Kind {
	case record.CellNumber:
		if c.Number == float64(int64(c.Number)) {
			return int64(c.Number)
		}
		return c.Number
	case record.CellBool:
		return c.Bool
	case record.CellDate:
		return datecodec.EncodeSerial(c.Date)
	default:
		return c.Text
	}
}

func readCell(typ excelize.CellType, val string) record.Cell {
	switch typ {
	case excelize.CellTypeBool:
		return record.BoolCell(val == "1" || strings.EqualFold(val, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeDate:
		return record.TextCell(val)
	}
	if n, err := strconv.ParseFloat(val, 64); err == nil {
		return record.NumberCell(n)
	}
	return record.TextCell(val)
}

func blank(raw []string) bool {
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
