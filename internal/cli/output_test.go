package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/station"
	"github.com/roach88/mrqart/internal/testutil"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success("s-1", map[string]string{"result": "success"}, "ignored")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s-1", resp.Session)
	assert.NotNil(t, resp.Data)
	assert.NotContains(t, buf.String(), "ignored")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Error(ErrCodeRejected, "record rejected", map[string]string{"file": "a.json"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "record rejected", resp.Error.Message)
	assert.Empty(t, resp.Session)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("s-1", struct{}{}, "No records."))
	assert.Equal(t, "No records.\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeJournal, "journal locked", nil))
	assert.Equal(t, "Error [E003]: journal locked\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", cause, ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped exit error", WrapExitError(ExitFailure, "rejected", cause), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := WrapExitError(ExitFailure, "replay failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "replay failed")
	assert.Contains(t, err.Error(), "boom")
}

func testStoreView(t *testing.T) station.View {
	t.Helper()
	store := station.NewStore(render.New([]string{"TR", "TE"}))
	store.Insert(testutil.NewRecord("MR1", "3", "mprage").Param("TR", "2300").Build())
	store.Insert(testutil.NewRecord("MR1", "4", "bold").Deviate("TR", "800", "1000").Build())
	store.Insert(testutil.NewRecord("MR2", "1", "localizer").Build())
	return store.View()
}

func TestViewJSON(t *testing.T) {
	vj := viewJSON(testStoreView(t))

	assert.True(t, vj.Fresh)
	require.Len(t, vj.Stations, 2)
	assert.Equal(t, "MR2", vj.Stations[0].ID)
	assert.Equal(t, "MR1", vj.Stations[1].ID)

	mr1 := vj.Stations[1].Entries
	require.Len(t, mr1, 2)
	assert.False(t, mr1[0].Conforms, "newest entry first")
	assert.True(t, mr1[0].Expanded)
	assert.Equal(t, []string{"TR should be 800 but have 1000"}, mr1[0].Deviations)
	assert.True(t, mr1[1].Conforms)
	assert.False(t, mr1[1].Expanded)
	assert.Empty(t, mr1[1].Deviations)
	assert.NotNil(t, mr1[1].Deviations, "encodes as [] rather than null")
}

func TestViewText(t *testing.T) {
	f := render.NewFormatter(render.PlainTheme())

	assert.Equal(t, "No records.", viewText(station.View{}, f))

	text := viewText(testStoreView(t), f)
	assert.Less(t, bytes.Index([]byte(text), []byte("MR2")), bytes.Index([]byte(text), []byte("MR1")))
	assert.Contains(t, text, "localizer")
	assert.Contains(t, text, "bold")
}
