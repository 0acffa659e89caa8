package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/journal"
)

// Replay rebuilds a session's view from its journal entries.
//
// Entries are handled in the order given, which for journal queries is
// seq order. Pulls are never issued during replay: the journaled pull
// results are applied where they originally were, so the same entries
// always produce the same view.
//
// The returned engine has its own session id and no recorder unless one
// is passed in opts.
func Replay(ctx context.Context, entries []journal.Entry, opts ...Option) (*Engine, error) {
	e := New(nil, opts...)

	var pulls int64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return e, err
		}
		ev, err := replayEvent(entry)
		if err != nil {
			return e, err
		}
		if ev.Pull != nil {
			pulls++
			ev.Pull.ID = pulls
		}
		e.Handle(ctx, ev)
	}
	return e, nil
}

func replayEvent(entry journal.Entry) (Event, error) {
	switch entry.Kind {
	case journal.KindFrame:
		return Event{Kind: EventFrame, Frame: entry.Payload}, nil

	case journal.KindPull:
		res := &PullResult{Body: entry.Payload}
		if entry.Payload == nil {
			msg := entry.Error
			if msg == "" {
				msg = "pull failed"
			}
			res.Err = errors.New(msg)
		}
		return Event{Kind: EventPullResult, Pull: res}, nil

	case journal.KindInject:
		rec, err := event.ParseRecord(entry.Payload)
		if err != nil {
			// Journaled rejections replay as rejections.
			return Event{Kind: EventInject, Record: &event.Record{}}, nil
		}
		return Event{Kind: EventInject, Record: &rec}, nil

	default:
		return Event{}, fmt.Errorf("replay entry %d: unknown kind %q", entry.Seq, entry.Kind)
	}
}
