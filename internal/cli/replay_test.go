package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mrqart/internal/testutil"
)

// recordedJournal injects two records into a fresh journal under session
// s-inject and returns its path.
func recordedJournal(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")
	a := writeRecord(t, dir, "a.json", testutil.NewRecord("MR1", "3", "mprage").JSON())
	b := writeRecord(t, dir, "b.json", testutil.NewRecord("MR2", "1", "bold").Deviate("TE", "30", "35").JSON())

	_, err := runInjectCmd(t, "text", "", "--journal", dbPath, a, b)
	require.NoError(t, err)
	return dbPath
}

func runReplayCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestReplay_LatestSession(t *testing.T) {
	dbPath := recordedJournal(t)

	out, err := runReplayCmd(t, "text", "--journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Session s-inject (2 entries)")
	assert.Contains(t, out, "== MR2 ==")
	assert.Contains(t, out, "== MR1 ==")
}

func TestReplay_CheckJSON(t *testing.T) {
	dbPath := recordedJournal(t)

	out, err := runReplayCmd(t, "json", "--journal", dbPath, "--session", "s-inject", "--check")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   replayJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s-inject", resp.Data.Replayed)
	assert.Equal(t, 2, resp.Data.Entries)
	require.Len(t, resp.Data.View.Stations, 2)
	assert.Equal(t, "MR2", resp.Data.View.Stations[0].ID)
	assert.Equal(t, []string{"all", "MR1", "MR2"}, resp.Data.View.Selector)
}

func TestReplay_UnknownSession(t *testing.T) {
	dbPath := recordedJournal(t)

	_, err := runReplayCmd(t, "text", "--journal", dbPath, "--session", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestReplay_EmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	_, err := runReplayCmd(t, "text", "--journal", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sessions")
}

func TestReplay_RequiresJournal(t *testing.T) {
	_, err := runReplayCmd(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSameView(t *testing.T) {
	v := viewJSON(testStoreView(t))
	assert.NoError(t, sameView(v, v))

	other := v
	other.Fresh = false
	assert.Error(t, sameView(v, other))
}
