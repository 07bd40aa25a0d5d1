package record

import (
	"math"
	"strconv"
	"strings"
	"time"

	"excelerate/internal/datecodec"
)

// Column names as they appear in the spreadsheet header row.
const (
	ColSequence    = "sl_no"
	ColItem        = "item"
	ColDate        = "date"
	ColDescription = "description"
	ColCompleted   = "completed"
)

// Columns lists the header in write order.
var Columns = []string{ColSequence, ColItem, ColDate, ColDescription, ColCompleted}

type Record struct {
	SequenceNumber int
	Item           string
	Description    string
	Date           string
	Completed      bool
}

type CellKind int

const (
	CellNumber CellKind = iota + 1
	CellText
	CellBool
	CellDate
)

// Cell is one typed spreadsheet value.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Bool   bool
	Date   time.Time
}

func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

func TextCell(v string) Cell { return Cell{Kind: CellText, Text: v} }

func BoolCell(v bool) Cell { return Cell{Kind: CellBool, Bool: v} }

func DateCell(v time.Time) Cell { return Cell{Kind: CellDate, Date: v} }

// Row maps header names to cells. Missing keys are missing cells.
type Row map[string]Cell

// FromRow never fails: anything missing or malformed falls back to a default.
func FromRow(row Row, index int) Record {
	r := Record{
		SequenceNumber: index + 1,
		Item:           cellString(row, ColItem),
		Description:    cellString(row, ColDescription),
		Date:           datecodec.Normalize(dateInput(row)),
	}
	if seq, ok := cellSequence(row); ok {
		r.SequenceNumber = seq
	}
	if c, ok := row[ColCompleted]; ok {
		r.Completed = cellBool(c)
	}
	return r
}

// ToRow leaves the date cell unset when the record has no valid date.
func ToRow(r Record) Row {
	row := Row{
		ColSequence:    NumberCell(float64(r.SequenceNumber)),
		ColItem:        TextCell(r.Item),
		ColDescription: TextCell(r.Description),
		ColCompleted:   BoolCell(r.Completed),
	}
	if t, ok := datecodec.Parse(r.Date); ok {
		row[ColDate] = DateCell(t)
	}
	return row
}

func dateInput(row Row) datecodec.Input {
	c, ok := row[ColDate]
	if !ok {
		return datecodec.Absent()
	}
	switch c.Kind {
	case CellNumber:
		return datecodec.Serial(c.Number)
	case CellText:
		return datecodec.Text(c.Text)
	case CellDate:
		return datecodec.Time(c.Date)
	default:
		return datecodec.Absent()
	}
}

func cellString(row Row, name string) string {
	c, ok := row[name]
	if !ok {
		return ""
	}
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	case CellDate:
		return datecodec.ToDisplayString(datecodec.Canonical(c.Date))
	default:
		return ""
	}
}

func cellSequence(row Row) (int, bool) {
	c, ok := row[ColSequence]
	if !ok {
		return 0, false
	}
	var v float64
	switch c.Kind {
	case CellNumber:
		v = c.Number
	case CellText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if v < 1 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func cellBool(c Cell) bool {
	switch c.Kind {
	case CellBool:
		return c.Bool
	case CellNumber:
		return c.Number != 0
	case CellText:
		return parseYN(c.Text)
	default:
		return false
	}
}

func parseYN(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "y" || v == "yes" || v == "true" || v == "1"
}
