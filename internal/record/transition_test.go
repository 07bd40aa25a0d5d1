package record_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelerate/internal/datecodec"
	"excelerate/internal/record"
)

func seqs(records []record.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.SequenceNumber
	}
	return out
}

func Test_ApplyDelete_Renumbers_Remaining_Records_When_Middle_Is_Removed(t *testing.T) {
	t.Parallel()

	in := []record.Record{
		{SequenceNumber: 1, Item: "a"},
		{SequenceNumber: 2, Item: "b"},
		{SequenceNumber: 3, Item: "c"},
	}

	got := record.ApplyDelete(in, 2)

	want := []record.Record{
		{SequenceNumber: 1, Item: "a"},
		{SequenceNumber: 2, Item: "c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delete mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1, 2, 3}, seqs(in), "input must not change")
}

func Test_ApplyDelete_Numbers_By_Given_Order_When_Collection_Is_Sorted(t *testing.T) {
	t.Parallel()

	displayed := []record.Record{
		{SequenceNumber: 3, Item: "c"},
		{SequenceNumber: 1, Item: "a"},
		{SequenceNumber: 2, Item: "b"},
	}

	got := record.ApplyDelete(displayed, 1)

	assert.Equal(t, []int{1, 2}, seqs(got))
	assert.Equal(t, "c", got[0].Item)
	assert.Equal(t, "b", got[1].Item)
}

func Test_ApplyDelete_Keeps_Collection_When_Sequence_Is_Unknown(t *testing.T) {
	t.Parallel()

	in := []record.Record{{SequenceNumber: 1}, {SequenceNumber: 2}}

	assert.Equal(t, []int{1, 2}, seqs(record.ApplyDelete(in, 9)))
}

func Test_ApplyAdd_Numbers_After_Collection_When_Adding(t *testing.T) {
	t.Parallel()

	in := []record.Record{{SequenceNumber: 1}, {SequenceNumber: 2}}

	got := record.ApplyAdd(in, record.Form{Item: "new", Date: datecodec.Text("2025-03-01")})

	require.Len(t, got, 3)
	assert.Len(t, in, 2)
	assert.Equal(t, record.Record{SequenceNumber: 3, Item: "new", Date: "2025-03-01T00:00:00.000Z"}, got[2])
}

func Test_ApplyEdit_Replaces_Fields_And_Keeps_Completed(t *testing.T) {
	t.Parallel()

	in := []record.Record{
		{SequenceNumber: 1, Item: "a", Completed: true},
		{SequenceNumber: 2, Item: "b"},
	}

	got := record.ApplyEdit(in, 1, record.Form{Item: "A", Description: "d", Date: datecodec.Serial(44197)})

	assert.Equal(t, record.Record{SequenceNumber: 1, Item: "A", Description: "d", Date: "2021-01-01T00:00:00.000Z", Completed: true}, got[0])
	assert.Equal(t, in[1], got[1])
	assert.Equal(t, "a", in[0].Item)
}

func Test_ApplyToggle_Flips_Only_Target_Record(t *testing.T) {
	t.Parallel()

	in := []record.Record{{SequenceNumber: 1}, {SequenceNumber: 2}}

	got := record.ApplyToggle(in, 2)

	assert.False(t, got[0].Completed)
	assert.True(t, got[1].Completed)
	assert.False(t, in[1].Completed)

	r, ok := record.Find(record.ApplyToggle(got, 2), 2)
	require.True(t, ok)
	assert.False(t, r.Completed)
}

func Test_ApplyAdd_Numbers_After_Highest_When_Collection_Has_Gaps(t *testing.T) {
	t.Parallel()

	in := []record.Record{{SequenceNumber: 1, Item: "a"}, {SequenceNumber: 3, Item: "b"}}

	got := record.ApplyAdd(in, record.Form{Item: "new"})

	assert.Equal(t, []int{1, 3, 4}, seqs(got))
}

func Test_Transitions_Touch_One_Record_When_Numbers_Repeat(t *testing.T) {
	t.Parallel()

	in := []record.Record{{SequenceNumber: 1, Item: "a"}, {SequenceNumber: 1, Item: "b"}}

	toggled := record.ApplyToggle(in, 1)
	assert.True(t, toggled[0].Completed)
	assert.False(t, toggled[1].Completed)

	edited := record.ApplyEdit(in, 1, record.Form{Item: "z"})
	assert.Equal(t, "z", edited[0].Item)
	assert.Equal(t, "b", edited[1].Item)

	deleted := record.ApplyDelete(in, 1)
	require.Len(t, deleted, 1)
	assert.Equal(t, record.Record{SequenceNumber: 1, Item: "b"}, deleted[0])
}

func Test_Renumber_Keeps_Numbers_When_Already_Dense_And_Unique(t *testing.T) {
	t.Parallel()

	in := []record.Record{{SequenceNumber: 3}, {SequenceNumber: 1}, {SequenceNumber: 2}}

	assert.Equal(t, []int{3, 1, 2}, seqs(record.Renumber(in)))
}

func Test_Renumber_Assigns_Positions_When_Numbers_Repeat_Or_Skip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   []int
	}{
		{name: "Gap", in: []int{1, 3}},
		{name: "Duplicate", in: []int{2, 2, 1}},
		{name: "OutOfRange", in: []int{1, 7, 2}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			in := make([]record.Record, len(testCase.in))
			for i, n := range testCase.in {
				in[i] = record.Record{SequenceNumber: n}
			}

			got := record.Renumber(in)

			want := make([]int, len(in))
			for i := range want {
				want[i] = i + 1
			}
			assert.Equal(t, want, seqs(got))
			assert.Equal(t, testCase.in, seqs(in))
		})
	}
}
