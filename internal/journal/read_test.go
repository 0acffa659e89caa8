package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, j *Journal) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, j.StartSession(ctx, Session{ID: "s1", StartedAt: base}))
	require.NoError(t, j.StartSession(ctx, Session{ID: "s2", StartedAt: base.Add(time.Hour)}))

	entries := []Entry{
		{Session: "s1", Seq: 2, Kind: KindFrame, Type: "new", Station: "MR2", Verdict: VerdictAccepted, Payload: []byte(`{"b":1}`)},
		{Session: "s1", Seq: 1, Kind: KindFrame, Type: "new", Station: "MR1", Verdict: VerdictAccepted, Fingerprint: "abc"},
		{Session: "s1", Seq: 3, Kind: KindPull, Verdict: VerdictFailed, Error: "connection refused"},
		{Session: "s2", Seq: 1, Kind: KindFrame, Type: "update", Station: "MR1", Verdict: VerdictIgnored},
	}
	for i, e := range entries {
		e.RecordedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, j.Append(ctx, e))
	}
}

func TestEntries_OrderedBySeq(t *testing.T) {
	j := openTestJournal(t)
	seed(t, j)

	entries, err := j.Entries(context.Background(), Filter{Session: "s1"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []int64{1, 2, 3}, []int64{entries[0].Seq, entries[1].Seq, entries[2].Seq})
	assert.Equal(t, "abc", entries[0].Fingerprint)
	assert.Equal(t, []byte(`{"b":1}`), entries[1].Payload)
	assert.Nil(t, entries[2].Payload)
	assert.Equal(t, VerdictFailed, entries[2].Verdict)
	assert.Equal(t, "connection refused", entries[2].Error)
	assert.Equal(t, base.Add(time.Second), entries[0].RecordedAt)
}

func TestEntries_StationFilter(t *testing.T) {
	j := openTestJournal(t)
	seed(t, j)

	entries, err := j.Entries(context.Background(), Filter{Station: "MR1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "s1", entries[0].Session)
	assert.Equal(t, "s2", entries[1].Session)
}

func TestEntries_EmptyIsNotNil(t *testing.T) {
	j := openTestJournal(t)

	entries, err := j.Entries(context.Background(), Filter{Session: "none"})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSessions(t *testing.T) {
	j := openTestJournal(t)
	seed(t, j)

	sessions, err := j.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, base, sessions[0].StartedAt)
}

func TestLatestSession(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	_, err := j.LatestSession(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	seed(t, j)
	s, err := j.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", s.ID)
}

func TestSession_NotFound(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.Session(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
