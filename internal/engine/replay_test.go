package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mrqart/internal/journal"
	"github.com/roach88/mrqart/internal/testutil"
)

func openJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

// runRecordedSession drives a session through failure, rebuild and
// post-rebuild inserts with a journal attached.
func runRecordedSession(t *testing.T, j *journal.Journal) *Engine {
	t.Helper()
	ctx := context.Background()
	clock := testutil.NewStepClock(time.Time{}, time.Second)

	p := &scriptedPuller{responses: []pullResponse{
		{err: errors.New("connection refused")},
		{body: testutil.FullState(mr2Loc, mr1Bold)},
	}}
	e, l := newTestEngine(t, p,
		WithRecorder(j),
		WithNow(clock.Now),
		WithEndpoints("ws://mr:5000/", "http://mr:8080/state"),
	)

	feed(t, e, []byte(`{"type":"new"}`), testutil.UpdateFrame("MR1", 1))
	l.RunAll()
	require.NoError(t, e.Drain(ctx))

	feed(t, e, testutil.UpdateFrame("MR1", 2))
	l.RunAll()
	require.NoError(t, e.Drain(ctx))

	feed(t, e, testutil.NewFrame(mr1Dwi), []byte(`{"type":"heartbeat"}`))
	require.NoError(t, e.Inject(ctx, mr2Loc))
	require.NoError(t, e.Drain(ctx))

	return e
}

func TestEngine_JournalsEveryEvent(t *testing.T) {
	j := openJournal(t)
	e := runRecordedSession(t, j)
	ctx := context.Background()

	s, err := j.Session(ctx, e.Session())
	require.NoError(t, err)
	assert.Equal(t, "ws://mr:5000/", s.PushURL)
	assert.Equal(t, "http://mr:8080/state", s.StateURL)

	entries, err := j.Entries(ctx, journal.Filter{Session: e.Session()})
	require.NoError(t, err)

	type row struct {
		Kind    journal.Kind
		Type    string
		Verdict journal.Verdict
	}
	var got []row
	for i, entry := range entries {
		assert.Equal(t, int64(i+1), entry.Seq)
		got = append(got, row{entry.Kind, entry.Type, entry.Verdict})
	}

	assert.Equal(t, []row{
		{journal.KindFrame, "", journal.VerdictRejected},
		{journal.KindFrame, "update", journal.VerdictAccepted},
		{journal.KindPull, "", journal.VerdictFailed},
		{journal.KindFrame, "update", journal.VerdictAccepted},
		{journal.KindPull, "", journal.VerdictAccepted},
		{journal.KindFrame, "new", journal.VerdictAccepted},
		{journal.KindFrame, "heartbeat", journal.VerdictIgnored},
		{journal.KindInject, "new", journal.VerdictAccepted},
	}, got)

	assert.Contains(t, entries[0].Error, "MISSING_FIELD")
	assert.Equal(t, "connection refused", entries[2].Error)
	assert.Nil(t, entries[2].Payload)
	assert.Len(t, entries[5].Fingerprint, 64)
	assert.Equal(t, "MR1", entries[5].Station)
}

func TestReplay_ReproducesView(t *testing.T) {
	j := openJournal(t)
	live := runRecordedSession(t, j)
	ctx := context.Background()

	entries, err := j.Entries(ctx, journal.Filter{Session: live.Session()})
	require.NoError(t, err)

	replayed, err := Replay(ctx, entries,
		WithLogger(DiscardLogger()),
		WithSessionGenerator(NewFixedGenerator("replay")),
	)
	require.NoError(t, err)

	want, got := live.View(), replayed.View()
	assert.Equal(t, want.Selector, got.Selector)
	assert.Equal(t, want.Order(), got.Order())
	require.Equal(t, want.Len(), got.Len())
	for i, sv := range want.Stations {
		for k, entry := range sv.Entries {
			assert.Equal(t, entry.Fragment, got.Stations[i].Entries[k].Fragment)
		}
	}
	assert.Equal(t, int64(0), replayed.PullsIssued(), "replay never pulls")
}

func TestReplay_Deterministic(t *testing.T) {
	j := openJournal(t)
	live := runRecordedSession(t, j)
	ctx := context.Background()

	entries, err := j.Entries(ctx, journal.Filter{Session: live.Session()})
	require.NoError(t, err)

	first, err := Replay(ctx, entries, WithLogger(DiscardLogger()))
	require.NoError(t, err)
	second, err := Replay(ctx, entries, WithLogger(DiscardLogger()))
	require.NoError(t, err)

	assert.Equal(t, first.View().Stations, second.View().Stations)
}

func TestReplay_UnknownKind(t *testing.T) {
	_, err := Replay(context.Background(), []journal.Entry{{Seq: 1, Kind: "bogus"}}, WithLogger(DiscardLogger()))
	assert.Error(t, err)
}

func TestReplay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Replay(ctx, []journal.Entry{{Seq: 1, Kind: journal.KindFrame}}, WithLogger(DiscardLogger()))
	assert.ErrorIs(t, err, context.Canceled)
}
