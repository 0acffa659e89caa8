package engine

import "github.com/roach88/mrqart/internal/station"

// ChangeKind describes what produced a Change.
type ChangeKind int

const (
	// ChangeInserted means one record was rendered.
	ChangeInserted ChangeKind = iota + 1
	// ChangeRebuilt means the view was replaced from a full-state pull.
	ChangeRebuilt
	// ChangePullIssued means an update on an empty view launched a pull.
	ChangePullIssued
	// ChangePullFailed means a pull completed without a usable state.
	ChangePullFailed
)

// String returns a lower-case name for logs and status lines.
func (k ChangeKind) String() string {
	switch k {
	case ChangeInserted:
		return "inserted"
	case ChangeRebuilt:
		return "rebuilt"
	case ChangePullIssued:
		return "pull issued"
	case ChangePullFailed:
		return "pull failed"
	default:
		return "unknown"
	}
}

// Change is published to subscribers after the engine handles an event
// that matters to the display. View is a complete snapshot, so a
// subscriber that missed earlier changes only needs the latest one.
type Change struct {
	Kind ChangeKind
	Seq  int64
	View station.View

	// Entries lists the records rendered by this change.
	Entries []station.Entry

	// PullID is set for pull changes.
	PullID int64

	// Err is set for ChangePullFailed.
	Err error
}

// Subscribe registers a subscriber with the given channel buffer. Sends
// never block the engine: a full subscriber misses changes. The returned
// cancel function unregisters and closes the channel. All subscriber
// channels are closed when Run returns.
func (e *Engine) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	e.subMu.Lock()
	defer e.subMu.Unlock()

	if e.subsClosed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch

	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

func (e *Engine) publish(c Change) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	for id, ch := range e.subs {
		select {
		case ch <- c:
		default:
			e.log.Debug("subscriber lagging, change dropped", "subscriber", id, "seq", c.Seq)
		}
	}
}

func (e *Engine) closeSubscribers() {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
	e.subsClosed = true
}
