package engine

import "github.com/roach88/mrqart/internal/journal"

// Observer receives engine activity for metrics. Methods are called from
// the engine loop goroutine, except PullIssued which may also be called
// while launching a pull.
type Observer interface {
	// EventHandled is called once per processed event with its verdict.
	EventHandled(kind EventKind, verdict journal.Verdict)

	// PullIssued is called when a pull is launched.
	PullIssued()

	// PullCompleted is called when a pull result is applied. err is nil
	// on success.
	PullCompleted(err error)

	// Rebuilt is called after a full-state rebuild with the number of
	// records inserted.
	Rebuilt(records int)

	// RecordInserted is called for every rendered record.
	RecordInserted(station string)

	// QueueDepth reports the queue length after each dequeue.
	QueueDepth(n int)
}

type noopObserver struct{}

func (noopObserver) EventHandled(EventKind, journal.Verdict) {}
func (noopObserver) PullIssued()                             {}
func (noopObserver) PullCompleted(error)                     {}
func (noopObserver) Rebuilt(int)                             {}
func (noopObserver) RecordInserted(string)                   {}
func (noopObserver) QueueDepth(int)                          {}
