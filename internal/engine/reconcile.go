package engine

import (
	"context"
	"fmt"

	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/journal"
)

// handleUpdate reacts to an "update" frame. Update content is never
// rendered. On a view that has never rendered a record, one pull is
// launched per update; otherwise nothing happens. Reports whether a pull
// was launched.
func (e *Engine) handleUpdate(ctx context.Context, seq int64, n event.Notification) bool {
	if !e.store.IsEmpty() {
		e.log.Debug("update ignored: view is fresh", "station", n.Station, "seq", seq)
		return false
	}

	if e.puller == nil {
		e.log.Debug("update on empty view, pulls disabled", "station", n.Station, "seq", seq)
		return false
	}

	id := e.pullSeq.Add(1)
	e.observer.PullIssued()
	e.log.Info("view empty, pulling full state", "pull", id, "station", n.Station, "seq", seq)
	e.publish(Change{Kind: ChangePullIssued, Seq: seq, View: e.View(), PullID: id})

	puller := e.puller
	e.launch(func() {
		body, err := puller.Pull(ctx)
		res := &PullResult{ID: id, Body: body, Err: err}
		if err := e.Enqueue(ctx, Event{Kind: EventPullResult, Pull: res}); err != nil {
			e.log.Debug("pull result dropped", "pull", id, "error", err)
		}
	})
	return true
}

// reconcile applies a pull completion. Success replaces the whole view;
// failure leaves it untouched. There is no retry and no sequencing: when
// pulls overlap, the last one handled wins.
func (e *Engine) reconcile(seq int64, res *PullResult) outcome {
	if res == nil {
		err := fmt.Errorf("pull result event missing result")
		e.log.Error("event processing failed", "error", err, "seq", seq)
		return outcome{verdict: journal.VerdictFailed, err: err}
	}

	out := outcome{payload: res.Body}

	cause := res.Err
	var state event.FullState
	if cause == nil {
		var err error
		if state, err = event.ParseFullState(res.Body); err != nil {
			cause = err
		}
	}

	if cause != nil {
		perr := &PullError{PullID: res.ID, Err: cause}
		e.log.Warn("pull failed, view unchanged", "error", perr, "pull", res.ID, "seq", seq)
		e.observer.PullCompleted(perr)
		e.publish(Change{Kind: ChangePullFailed, Seq: seq, View: e.View(), PullID: res.ID, Err: perr})

		out.verdict = journal.VerdictFailed
		out.err = cause
		return out
	}

	inserted := e.store.RebuildFrom(state)
	for _, entry := range inserted {
		e.observer.RecordInserted(entry.Record.StationID)
	}
	view := e.snapshot()

	e.observer.PullCompleted(nil)
	e.observer.Rebuilt(len(inserted))
	e.log.Info("view rebuilt from full state",
		"pull", res.ID,
		"stations", len(state),
		"seq", seq,
	)
	e.publish(Change{Kind: ChangeRebuilt, Seq: seq, View: view, Entries: inserted, PullID: res.ID})

	out.verdict = journal.VerdictAccepted
	return out
}
