package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mrqart/internal/engine"
	"github.com/roach88/mrqart/internal/metrics"
	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/testutil"
)

// syncBuffer is written by the watch loop while the test polls it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// mrqartServer serves one update frame on the first push connection and
// holds later connections open. The state endpoint returns state.
func mrqartServer(t *testing.T, state []byte) (pushURL, stateURL string, pulls *atomic.Int64) {
	t.Helper()
	pulls = &atomic.Int64{}
	var conns atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		pulls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(state)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		if conns.Add(1) == 1 {
			_ = c.Write(r.Context(), websocket.MessageText, testutil.UpdateFrame("MR1", 12))
		}
		_, _, _ = c.Read(r.Context())
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/", srv.URL + "/state", pulls
}

func TestWatch_PullsOnFirstUpdate(t *testing.T) {
	state := testutil.FullState(
		testutil.NewRecord("MR1", "3", "mprage").Build(),
		testutil.NewRecord("MR2", "1", "bold").Deviate("TR", "800", "1000").Build(),
	)
	pushURL, stateURL, pulls := mrqartServer(t, state)

	out := &syncBuffer{}
	plain := render.PlainTheme()
	cmd := newWatchCommand(&WatchOptions{
		RootOptions:      &RootOptions{Format: "json"},
		SessionGenerator: engine.NewFixedGenerator("s-watch"),
		Theme:            &plain,
	})
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--push", pushURL, "--state", stateURL, "--reconnect-delay", "10ms"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"change":"rebuilt"`)
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	assert.Equal(t, int64(1), pulls.Load())

	var resp struct {
		Status  string         `json:"status"`
		Session string         `json:"session"`
		Data    changeJSONData `json:"data"`
	}
	line := strings.SplitN(strings.TrimSpace(out.String()), "\n", 2)[0]
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	assert.Equal(t, "s-watch", resp.Session)
	assert.Equal(t, "rebuilt", resp.Data.Change)
	assert.Equal(t, int64(1), resp.Data.Pull)
	require.Len(t, resp.Data.View.Stations, 2)
	assert.Equal(t, []string{"all", "MR1", "MR2"}, resp.Data.View.Selector)
}

func TestWatch_InvalidConfig(t *testing.T) {
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--push", "http://not-a-websocket/"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "push_url")
}

func TestPrintChange_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	out := &OutputFormatter{Format: "text", Writer: buf}
	f := render.NewFormatter(render.PlainTheme())
	view := testStoreView(t)

	printChange(out, f, "s-1", engine.Change{
		Kind:    engine.ChangeInserted,
		View:    view,
		Entries: view.Stations[0].Entries[:1],
	})
	assert.True(t, strings.HasPrefix(buf.String(), "== MR2 =="))
	assert.Contains(t, buf.String(), "localizer")

	buf.Reset()
	printChange(out, f, "s-1", engine.Change{Kind: engine.ChangePullIssued, PullID: 1})
	assert.Empty(t, buf.String())

	printChange(out, f, "s-1", engine.Change{Kind: engine.ChangePullFailed, PullID: 2, Err: &engine.PullError{PullID: 2, Err: io.ErrUnexpectedEOF}})
	assert.Equal(t, "Error [E001]: pull 2 failed: unexpected EOF\n", buf.String())
}

func TestServeMetrics(t *testing.T) {
	m := metrics.New()
	m.PullIssued()

	addr, shutdown, err := serveMetrics("127.0.0.1:0", m, engine.DiscardLogger())
	require.NoError(t, err)
	defer shutdown()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "mrqart_pulls_issued_total 1")
}
