package record

import "excelerate/internal/datecodec"

// Form carries user-entered fields for add and edit.
type Form struct {
	Item        string
	Description string
	Date        datecodec.Input
}

// ApplyAdd appends a new record numbered after the highest number in use.
func ApplyAdd(records []Record, form Form) []Record {
	next := len(records)
	for _, r := range records {
		next = max(next, r.SequenceNumber)
	}
	out := make([]Record, 0, len(records)+1)
	out = append(out, records...)
	return append(out, Record{
		SequenceNumber: next + 1,
		Item:           form.Item,
		Description:    form.Description,
		Date:           datecodec.Normalize(form.Date),
	})
}

// ApplyEdit replaces the editable fields of the first record numbered seq.
// The completed flag is kept.
func ApplyEdit(records []Record, seq int, form Form) []Record {
	out := make([]Record, len(records))
	target := indexOf(records, seq)
	for i, r := range records {
		if i == target {
			r.Item = form.Item
			r.Description = form.Description
			r.Date = datecodec.Normalize(form.Date)
		}
		out[i] = r
	}
	return out
}

func ApplyToggle(records []Record, seq int) []Record {
	out := make([]Record, len(records))
	target := indexOf(records, seq)
	for i, r := range records {
		if i == target {
			r.Completed = !r.Completed
		}
		out[i] = r
	}
	return out
}

// ApplyDelete drops the first record numbered seq and renumbers the rest 1..N
// in the order given, so callers pass the collection in display order.
func ApplyDelete(records []Record, seq int) []Record {
	out := make([]Record, 0, len(records))
	target := indexOf(records, seq)
	for i, r := range records {
		if i == target {
			continue
		}
		r.SequenceNumber = len(out) + 1
		out = append(out, r)
	}
	return out
}

// Find returns the record numbered seq.
func Find(records []Record, seq int) (Record, bool) {
	for _, r := range records {
		if r.SequenceNumber == seq {
			return r, true
		}
	}
	return Record{}, false
}

// Renumber makes sequence numbers unique. A collection already numbered with
// exactly 1..N, in any order, is returned as is; anything else (duplicates,
// gaps, non-positive numbers) is renumbered index+1 in the order given.
func Renumber(records []Record) []Record {
	seen := make([]bool, len(records)+1)
	dense := true
	for _, r := range records {
		n := r.SequenceNumber
		if n < 1 || n > len(records) || seen[n] {
			dense = false
			break
		}
		seen[n] = true
	}
	if dense {
		return records
	}
	out := make([]Record, len(records))
	for i, r := range records {
		r.SequenceNumber = i + 1
		out[i] = r
	}
	return out
}

func indexOf(records []Record, seq int) int {
	for i, r := range records {
		if r.SequenceNumber == seq {
			return i
		}
	}
	return -1
}
