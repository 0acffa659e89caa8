package engine

import (
	"context"

	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/journal"
	"github.com/roach88/mrqart/internal/station"
)

// dispatch routes one push frame. It never touches the network itself;
// pulls go through the reconciler.
func (e *Engine) dispatch(ctx context.Context, seq int64, frame []byte) outcome {
	out := outcome{payload: frame}

	n, err := event.ParseNotification(frame)
	if err != nil {
		e.log.Warn("frame rejected",
			"error", err,
			"code", string(event.CodeOf(err)),
			"seq", seq,
			"bytes", len(frame),
		)
		out.verdict = journal.VerdictRejected
		out.err = err
		return out
	}

	out.typ = string(n.Type)
	out.station = n.Station

	switch n.Type {
	case event.TypeNew:
		entry, view := e.insert(*n.Record)
		out.verdict = journal.VerdictAccepted
		out.fingerprint = e.fingerprint(*n.Record)

		e.log.Info("record rendered",
			"station", n.Station,
			"sequence", n.Record.SequenceKey(),
			"conforms", n.Record.Conforms,
			"seq", seq,
		)
		e.publish(Change{Kind: ChangeInserted, Seq: seq, View: view, Entries: []station.Entry{entry}})

	case event.TypeUpdate:
		if e.handleUpdate(ctx, seq, n) {
			out.verdict = journal.VerdictAccepted
		} else {
			out.verdict = journal.VerdictIgnored
		}

	default:
		e.log.Debug("frame ignored: unknown type", "type", string(n.Type), "seq", seq)
		out.verdict = journal.VerdictIgnored
	}

	return out
}
