// Package view computes sorted and filtered projections of a record collection.
// Nothing here mutates its input.
package view

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"excelerate/internal/datecodec"
	"excelerate/internal/record"
)

// UpcomingDays is the closed window, in calendar days from today, that counts
// as upcoming.
const UpcomingDays = 3

// StaleMonths is how far in the past a completed record's date must be before
// it is archived from view.
const StaleMonths = 1

type Key string

const (
	KeySequence    Key = record.ColSequence
	KeyItem        Key = record.ColItem
	KeyDate        Key = record.ColDate
	KeyDescription Key = record.ColDescription
	KeyCompleted   Key = record.ColCompleted
)

// Keys lists sortable keys in cycling order.
var Keys = []Key{KeySequence, KeyItem, KeyDate, KeyDescription, KeyCompleted}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseKey(s string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Keys, k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc, "":
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Options selects which filters VisibleRecords applies.
type Options struct {
	HideStaleCompleted bool
	UpcomingOnly       bool
}

// SortBy is SortByLocale with English collation.
func SortBy(records []record.Record, key Key, dir Direction) []record.Record {
	return SortByLocale(records, key, dir, language.English)
}

// SortByLocale returns a stably sorted copy. Absent values sort last in either
// direction.
func SortByLocale(records []record.Record, key Key, dir Direction, tag language.Tag) []record.Record {
	out := slices.Clone(records)
	col := collate.New(tag)
	slices.SortStableFunc(out, func(a, b record.Record) int {
		va, vb := valueOf(a, key), valueOf(b, key)
		switch {
		case va.kind == kindAbsent && vb.kind == kindAbsent:
			return 0
		case va.kind == kindAbsent:
			return 1
		case vb.kind == kindAbsent:
			return -1
		}
		c := compare(col, va, vb)
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

// IsUpcoming reports whether date falls in [today, today+3 days].
func IsUpcoming(date string, today time.Time) bool {
	d, ok := datecodec.Parse(date)
	if !ok {
		return false
	}
	start := datecodec.Midnight(today)
	end := start.AddDate(0, 0, UpcomingDays)
	return !d.Before(start) && !d.After(end)
}

// IsStale reports whether date is at least one calendar month before today.
func IsStale(date string, today time.Time) bool {
	d, ok := datecodec.Parse(date)
	if !ok {
		return false
	}
	cutoff := datecodec.Midnight(today).AddDate(0, -StaleMonths, 0)
	return !d.After(cutoff)
}

// VisibleRecords drops stale completed records first, then applies the
// upcoming filter.
func VisibleRecords(records []record.Record, opts Options, today time.Time) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if opts.HideStaleCompleted && r.Completed && IsStale(r.Date, today) {
			continue
		}
		if opts.UpcomingOnly && (r.Completed || !IsUpcoming(r.Date, today)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type valueKind int

const (
	kindAbsent valueKind = iota
	kindString
	kindNumber
	kindBool
	kindTime
)

type value struct {
	kind valueKind
	str  string
	num  float64
	t    time.Time
}

func valueOf(r record.Record, key Key) value {
	switch key {
	case KeySequence:
		return value{kind: kindNumber, num: float64(r.SequenceNumber)}
	case KeyItem:
		return value{kind: kindString, str: r.Item}
	case KeyDescription:
		return value{kind: kindString, str: r.Description}
	case KeyCompleted:
		return value{kind: kindBool, num: boolNum(r.Completed)}
	case KeyDate:
		t, ok := datecodec.Parse(r.Date)
		if !ok {
			return value{}
		}
		return value{kind: kindTime, t: t}
	default:
		return value{}
	}
}

func compare(col *collate.Collator, a, b value) int {
	if a.kind != b.kind {
		return 0
	}
	switch a.kind {
	case kindString:
		return col.CompareString(a.str, b.str)
	case kindNumber, kindBool:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case kindTime:
		return a.t.Compare(b.t)
	default:
		return 0
	}
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
