package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mrqart/internal/event"
)

func TestRecordBuilder_RoundTrip(t *testing.T) {
	b := NewRecord("MR1", "4", "ep2d_bold").Project("Brain").Param("TE", "30").Deviate("TR", "2000", "1800")

	rec, err := event.ParseRecord(b.JSON())
	require.NoError(t, err)

	assert.Equal(t, "MR1", rec.StationID)
	assert.False(t, rec.Conforms)
	assert.Equal(t, "1800", rec.Input.String("TR"))
	assert.Equal(t, "2000", rec.Template.String("TR"))
	assert.Equal(t, "Brain", rec.Input.String(event.ParamProject))
}

func TestNewFrame_Parses(t *testing.T) {
	n, err := event.ParseNotification(NewFrame(NewRecord("MR2", "1", "loc").Build()))
	require.NoError(t, err)
	assert.Equal(t, event.TypeNew, n.Type)
	assert.Equal(t, "MR2", n.Station)
}

func TestUpdateFrame_Parses(t *testing.T) {
	n, err := event.ParseNotification(UpdateFrame("MR1", 12))
	require.NoError(t, err)
	assert.Equal(t, event.TypeUpdate, n.Type)
	assert.True(t, n.HasVolume)
	assert.Equal(t, int64(12), n.Volume)
}

func TestFullState_KeepsOrder(t *testing.T) {
	body := FullState(
		NewRecord("MR2", "1", "a").Build(),
		NewRecord("MR1", "2", "b").Build(),
	)
	state, err := event.ParseFullState(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"MR2", "MR1"}, state.Stations())
}

func TestBuild_IsIndependent(t *testing.T) {
	b := NewRecord("MR1", "1", "a")
	rec := b.Build()
	b.Deviate("TR", "1", "2")
	assert.True(t, rec.Conforms)
	assert.Empty(t, rec.Errors)
}
