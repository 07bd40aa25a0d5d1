// Package datecodec converts between the canonical ISO date string used inside
// the application and the encodings found in spreadsheet files: numeric serial
// dates and free-form text.
package datecodec

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// CanonicalLayout is the only date form stored on a record.
const CanonicalLayout = "2006-01-02T15:04:05.000Z"

// DisplayLayout renders dates for people. Month names are English.
const DisplayLayout = "January 2, 2006"

// leapBugSerial is the fictitious 1900-02-29 in the spreadsheet serial scheme.
const leapBugSerial = 60

// maxSerialDays bounds serials to the range a timestamp can represent.
const maxSerialDays = 100_000_000

var ErrInvalidDate = errors.New("invalid date")

// dayZero is serial 0, so serial 1 is 1900-01-01.
var dayZero = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

// Kind tags the representation carried by an Input.
type Kind int

const (
	KindAbsent Kind = iota
	KindSerial
	KindText
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindSerial:
		return "serial"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return "absent"
	}
}

// Input is a date in one of the representations accepted by Normalize.
type Input struct {
	kind   Kind
	serial float64
	text   string
	time   time.Time
}

func Absent() Input { return Input{kind: KindAbsent} }

func Serial(serial float64) Input { return Input{kind: KindSerial, serial: serial} }

func Text(text string) Input { return Input{kind: KindText, text: text} }

func Time(t time.Time) Input { return Input{kind: KindTime, time: t} }

func (in Input) Kind() Kind { return in.kind }

// DecodeSerial converts a spreadsheet serial date. Serials above 60 are shifted
// down by one to undo the 1900 leap-year defect the format inherited. Serial
// dates start at 1; zero and negative serials are rejected.
func DecodeSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || serial < 1 || serial > maxSerialDays {
		return time.Time{}, fmt.Errorf("%w: serial %v out of range", ErrInvalidDate, serial)
	}
	if serial > leapBugSerial {
		serial--
	}
	days := int(math.Floor(serial))
	return dayZero.AddDate(0, 0, days), nil
}

// EncodeSerial is the inverse of DecodeSerial.
func EncodeSerial(t time.Time) int {
	d := truncate(t)
	days := int(math.Round(float64(d.Unix()-dayZero.Unix()) / 86400))
	if days >= leapBugSerial {
		days++
	}
	return days
}

// HasSerial reports whether t falls on or after 1900-01-01, the first day a
// serial date can express.
func HasSerial(t time.Time) bool {
	return EncodeSerial(t) >= 1
}

func DecodeText(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("%w: empty text", ErrInvalidDate)
	}
	if t, err := time.Parse(CanonicalLayout, text); err == nil {
		return truncate(t), nil
	}
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, text, err)
	}
	return truncate(t), nil
}

// Normalize returns the canonical string for any supported input, or "" when
// the input is absent or cannot be decoded.
func Normalize(in Input) string {
	switch in.kind {
	case KindSerial:
		t, err := DecodeSerial(in.serial)
		if err != nil {
			return ""
		}
		return Canonical(t)
	case KindText:
		t, err := DecodeText(in.text)
		if err != nil {
			return ""
		}
		return Canonical(t)
	case KindTime:
		if in.time.IsZero() {
			return ""
		}
		return Canonical(in.time)
	default:
		return ""
	}
}

// Canonical formats the calendar date of t in its own location.
func Canonical(t time.Time) string {
	return truncate(t).Format(CanonicalLayout)
}

// Parse reads a canonical string back into a UTC midnight time.
func Parse(canonical string) (time.Time, bool) {
	if canonical == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(CanonicalLayout, canonical)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ToDisplayString renders canonical in DisplayLayout, independent of any
// configured locale, or "" when canonical is not a valid date.
func ToDisplayString(canonical string) string {
	t, ok := Parse(canonical)
	if !ok {
		return ""
	}
	return t.Format(DisplayLayout)
}

// Midnight returns the calendar date of t as a UTC midnight, the same frame
// canonical dates live in.
func Midnight(t time.Time) time.Time {
	return truncate(t)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
