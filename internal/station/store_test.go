package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/testutil"
)

func TestStore_StartsEmpty(t *testing.T) {
	s := NewStore(nil)

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())

	v := s.View()
	assert.False(t, v.Fresh)
	assert.Empty(t, v.Stations)
	assert.Empty(t, v.Selector)
}

func TestStore_InsertNewestFirst(t *testing.T) {
	s := NewStore(nil)
	s.Insert(testutil.NewRecord("MR1", "1", "loc").Build())
	s.Insert(testutil.NewRecord("MR1", "2", "t1").Build())
	s.Insert(testutil.NewRecord("MR1", "3", "bold").Build())

	sv, ok := s.View().Station("MR1")
	require.True(t, ok)
	require.Len(t, sv.Entries, 3)
	assert.Equal(t, "3/bold", sv.Entries[0].Fragment.SequenceKey)
	assert.Equal(t, "2/t1", sv.Entries[1].Fragment.SequenceKey)
	assert.Equal(t, "1/loc", sv.Entries[2].Fragment.SequenceKey)
	assert.Greater(t, sv.Entries[0].Seq, sv.Entries[1].Seq)
}

func TestStore_RepeatedSequenceIsNewEntry(t *testing.T) {
	s := NewStore(nil)
	rec := testutil.NewRecord("MR1", "3", "bold").Build()
	s.Insert(rec)
	s.Insert(rec)

	assert.Equal(t, 2, s.Len())
}

func TestStore_InsertSetsFresh(t *testing.T) {
	s := NewStore(nil)
	s.Insert(testutil.NewRecord("MR1", "1", "loc").Build())
	assert.False(t, s.IsEmpty())
	assert.True(t, s.View().Fresh)
}

func TestStore_StationContainersAndSelector(t *testing.T) {
	s := NewStore(nil)
	s.Insert(testutil.NewRecord("MR1", "1", "a").Build())
	s.Insert(testutil.NewRecord("MR2", "1", "a").Build())
	s.Insert(testutil.NewRecord("MR1", "2", "b").Build())
	s.Insert(testutil.NewRecord("MR3", "1", "a").Build())

	v := s.View()
	// New containers go on top.
	assert.Equal(t, []string{"MR3", "MR2", "MR1"}, v.Order())
	// Selector options are appended.
	assert.Equal(t, []string{"MR1", "MR2", "MR3"}, v.Selector)
	assert.Equal(t, []string{All, "MR1", "MR2", "MR3"}, v.Options())
}

func TestStore_RebuildFrom(t *testing.T) {
	s := NewStore(nil)
	s.Insert(testutil.NewRecord("OLD", "9", "stale").Build())

	state, err := event.ParseFullState(testutil.FullState(
		testutil.NewRecord("MR1", "3", "bold").Build(),
		testutil.NewRecord("MR2", "4", "dwi").Deviate("TR", "2000", "1800").Build(),
	))
	require.NoError(t, err)

	inserted := s.RebuildFrom(state)
	require.Len(t, inserted, 2)

	v := s.View()
	_, stale := v.Station("OLD")
	assert.False(t, stale)
	assert.Equal(t, []string{"MR1", "MR2"}, v.Selector)
	assert.Equal(t, []string{"MR2", "MR1"}, v.Order())
	assert.Equal(t, 2, v.Len())

	sv, _ := v.Station("MR2")
	assert.True(t, sv.Entries[0].Fragment.Expanded)
}

func TestStore_RebuildWithEmptyStateKeepsFresh(t *testing.T) {
	s := NewStore(nil)
	s.Insert(testutil.NewRecord("MR1", "1", "a").Build())

	s.RebuildFrom(nil)

	assert.False(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.View().Stations)
}

func TestStore_ViewIsSnapshot(t *testing.T) {
	s := NewStore(nil)
	s.Insert(testutil.NewRecord("MR1", "1", "a").Build())
	before := s.View()

	s.Insert(testutil.NewRecord("MR1", "2", "b").Build())
	s.Insert(testutil.NewRecord("MR2", "1", "a").Build())

	assert.Equal(t, 1, before.Len())
	assert.Equal(t, []string{"MR1"}, before.Selector)
	assert.Equal(t, 3, s.View().Len())
}

func TestStore_InsertDoesNotAliasCaller(t *testing.T) {
	s := NewStore(nil)
	rec := testutil.NewRecord("MR1", "1", "a").Build()
	s.Insert(rec)

	rec.Input[event.ParamSeriesNumber] = event.StringValue("99")

	sv, _ := s.View().Station("MR1")
	assert.Equal(t, "1", sv.Entries[0].Record.Input.String(event.ParamSeriesNumber))
}
