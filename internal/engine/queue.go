package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/mrqart/internal/event"
)

// DefaultQueueSize is the default capacity of the engine queue.
const DefaultQueueSize = 64

// ErrQueueClosed is returned by Enqueue once the engine has stopped.
var ErrQueueClosed = errors.New("engine: queue closed")

// EventKind distinguishes between event kinds.
type EventKind int

const (
	// EventFrame is a raw push frame to dispatch.
	EventFrame EventKind = iota + 1
	// EventPullResult is the completion of a full-state pull.
	EventPullResult
	// EventInject is a record submitted through the debug surface.
	EventInject
)

// String returns the journal name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventPullResult:
		return "pull"
	case EventInject:
		return "inject"
	default:
		return "unknown"
	}
}

// PullResult is the outcome of one pull. Exactly one of Body and Err is
// meaningful.
type PullResult struct {
	ID   int64
	Body []byte
	Err  error
}

// Event is one unit of work for the engine loop.
type Event struct {
	Kind   EventKind
	Frame  []byte
	Pull   *PullResult
	Record *event.Record
}

// eventQueue is a bounded, thread-safe FIFO queue for events.
//
// Producers block in Enqueue while the queue is full, so frames are never
// dropped and their order is kept. The loop waits on ready; blocked
// producers wait on space. Both channels are buffered with size 1 and
// coalesce signals. Close closes both to wake every waiter.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	limit  int
	closed bool
	ready  chan struct{}
	space  chan struct{}
}

// newEventQueue creates an empty queue holding at most limit events.
func newEventQueue(limit int) *eventQueue {
	if limit <= 0 {
		limit = DefaultQueueSize
	}
	return &eventQueue{
		events: make([]Event, 0, limit),
		limit:  limit,
		ready:  make(chan struct{}, 1),
		space:  make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue, waiting for room while
// the queue is full. Returns ErrQueueClosed once the queue is closed, or
// the context error if ctx ends first.
func (q *eventQueue) Enqueue(ctx context.Context, e Event) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrQueueClosed
		}
		if len(q.events) < q.limit {
			q.events = append(q.events, e)
			select {
			case q.ready <- struct{}{}:
			default:
			}
			q.mu.Unlock()
			return nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.space:
		}
	}
}

// TryDequeue removes the front event without blocking.
// Returns (Event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Nil out the slot so the frame bytes and records can be collected.
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	if !q.closed {
		select {
		case q.space <- struct{}{}:
		default:
		}
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.ready
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drained reports whether the queue is closed and empty.
func (q *eventQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Close stops accepting events and wakes every waiter. Queued events can
// still be dequeued.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.ready)
	close(q.space)
}
