package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/mrqart/internal/engine"
	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/journal"
	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/testutil"
	"github.com/roach88/mrqart/internal/transport"
)

// Harness drives one engine through a scenario.
type Harness struct {
	engine   *engine.Engine
	journal  *journal.Journal
	launcher *engine.DeferredLauncher
	puller   *transport.Scripted
	session  string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine and in-memory journal.
// An error means the scenario could not be executed; assertion failures
// are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	jr, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer jr.Close()

	responses, err := pullResponses(scenario.Pulls)
	if err != nil {
		return nil, err
	}

	session := scenario.Session
	if session == "" {
		session = DefaultSession
	}

	h := &Harness{
		journal:  jr,
		launcher: &engine.DeferredLauncher{},
		puller:   transport.NewScripted(responses...),
		session:  session,
	}
	clock := testutil.NewStepClock(time.Time{}, time.Second)
	h.engine = engine.New(h.puller,
		engine.WithLauncher(h.launcher.Launch),
		engine.WithRecorder(jr),
		engine.WithRenderer(render.New(scenario.Params)),
		engine.WithSessionGenerator(engine.NewFixedGenerator(session)),
		engine.WithLogger(engine.DiscardLogger()),
		engine.WithNow(clock.Now),
	)

	for i, step := range scenario.Steps {
		if err := h.step(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	result := NewResult()
	result.View = h.engine.View()
	result.PullsIssued = h.engine.PullsIssued()
	result.PendingPulls = h.launcher.Pending()

	entries, err := jr.Entries(ctx, journal.Filter{Session: session})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	for _, e := range entries {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:     e.Seq,
			Kind:    string(e.Kind),
			Type:    e.Type,
			Station: e.Station,
			Verdict: string(e.Verdict),
			Error:   e.Error,
		})
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// step applies one step and drains the queue.
func (h *Harness) step(ctx context.Context, step Step) error {
	switch {
	case step.Frame != nil:
		frame, err := nodeJSON(step.Frame)
		if err != nil {
			return fmt.Errorf("frame: %w", err)
		}
		if err := h.engine.EnqueueFrame(ctx, frame); err != nil {
			return err
		}

	case step.Raw != "":
		if err := h.engine.EnqueueFrame(ctx, []byte(step.Raw)); err != nil {
			return err
		}

	case step.Inject != nil:
		data, err := nodeJSON(step.Inject)
		if err != nil {
			return fmt.Errorf("inject: %w", err)
		}
		rec, err := event.ParseRecord(data)
		if err != nil {
			return fmt.Errorf("inject: %w", err)
		}
		if err := h.engine.Inject(ctx, rec); err != nil {
			return err
		}

	case step.Pull != nil:
		if !h.launcher.Run(*step.Pull) {
			return fmt.Errorf("no pending pull at index %d (%d pending)", *step.Pull, h.launcher.Pending())
		}

	case step.PullAll:
		h.launcher.RunAll()
	}

	return h.engine.Drain(ctx)
}

func pullResponses(pulls []PullResponse) ([]transport.Response, error) {
	out := make([]transport.Response, 0, len(pulls))
	for i, p := range pulls {
		switch {
		case p.State != nil:
			body, err := nodeJSON(p.State)
			if err != nil {
				return nil, fmt.Errorf("pulls[%d]: %w", i, err)
			}
			out = append(out, transport.Response{Body: body})
		case p.Raw != "":
			out = append(out, transport.Response{Body: []byte(p.Raw)})
		default:
			out = append(out, transport.Response{Err: p.Error})
		}
	}
	return out, nil
}
