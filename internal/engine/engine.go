package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/journal"
	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/station"
)

// Recorder persists processed events. Implemented by *journal.Journal.
type Recorder interface {
	StartSession(ctx context.Context, s journal.Session) error
	Append(ctx context.Context, e journal.Entry) error
}

// Engine is the single-writer client event loop.
//
// The engine owns the session's station.Store. Frames from the push
// channel, pull completions and injected records are queued and handled
// one at a time in FIFO order.
//
// Thread-safety model:
//   - Enqueue, EnqueueFrame, Inject, View, Subscribe: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Drain, Handle: only while Run is not active
type Engine struct {
	session string
	log     *slog.Logger

	store    *station.Store
	clock    *Clock
	queue    *eventQueue
	puller   Puller
	launch   Launcher
	recorder Recorder
	observer Observer
	now      func() time.Time

	queueSize      int
	renderer       *render.Renderer
	sessionGen     SessionGenerator
	pushURL        string
	stateURL       string
	sessionStarted bool

	view    atomic.Pointer[station.View]
	pullSeq atomic.Int64

	subMu      sync.Mutex
	subs       map[int]chan Change
	nextSub    int
	subsClosed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithQueueSize sets the queue capacity. Default: DefaultQueueSize.
func WithQueueSize(n int) Option {
	return func(e *Engine) { e.queueSize = n }
}

// WithRenderer sets the renderer used for every insert.
func WithRenderer(r *render.Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithRecorder journals every processed event.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithObserver reports engine activity, typically to metrics.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithSessionGenerator sets the source of the session id.
// Default: UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) { e.sessionGen = g }
}

// WithLauncher replaces the goroutine-per-pull launcher.
func WithLauncher(l Launcher) Option {
	return func(e *Engine) { e.launch = l }
}

// WithNow sets the wall clock used for journal timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the base logger. Every line carries the session id.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithEndpoints records the push and pull endpoints in the session row.
func WithEndpoints(pushURL, stateURL string) Option {
	return func(e *Engine) {
		e.pushURL = pushURL
		e.stateURL = stateURL
	}
}

// New creates an Engine that pulls full state from puller. A nil puller
// disables pulls; updates on an empty view are then journaled and
// ignored, which is what replay wants.
func New(puller Puller, opts ...Option) *Engine {
	e := &Engine{
		clock:      NewClock(),
		puller:     puller,
		launch:     goLauncher,
		observer:   noopObserver{},
		now:        time.Now,
		log:        slog.Default(),
		sessionGen: UUIDv7Generator{},
		subs:       make(map[int]chan Change),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.session = e.sessionGen.Generate()
	e.log = e.log.With("session", e.session)
	e.queue = newEventQueue(e.queueSize)
	e.store = station.NewStore(e.renderer)

	empty := e.store.View()
	e.view.Store(&empty)

	return e
}

// DiscardLogger returns a logger that drops everything. Used by tests and
// replay.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Session returns the session id.
func (e *Engine) Session() string {
	return e.session
}

// View returns the latest snapshot. Safe from any goroutine.
func (e *Engine) View() station.View {
	return *e.view.Load()
}

// PullsIssued returns how many pulls the session has launched.
func (e *Engine) PullsIssued() int64 {
	return e.pullSeq.Load()
}

// Enqueue submits an event, blocking while the queue is full.
// Returns ErrQueueClosed after Stop or once Run has returned.
func (e *Engine) Enqueue(ctx context.Context, ev Event) error {
	return e.queue.Enqueue(ctx, ev)
}

// EnqueueFrame submits a raw push frame. The engine keeps the slice.
func (e *Engine) EnqueueFrame(ctx context.Context, frame []byte) error {
	return e.Enqueue(ctx, Event{Kind: EventFrame, Frame: frame})
}

// Inject submits a record through the debug surface. It bypasses the
// dispatcher and transport and is rendered like any "new" record.
func (e *Engine) Inject(ctx context.Context, rec event.Record) error {
	rec = rec.Clone()
	return e.Enqueue(ctx, Event{Kind: EventInject, Record: &rec})
}

// Run starts the event loop. Blocks until ctx is cancelled or Stop is
// called and the queue has drained.
//
// Event failures are logged with full context and processing continues.
// Nothing an event carries can stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine starting", "queue_size", e.queue.limit)
	defer e.closeSubscribers()

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.observer.QueueDepth(e.queue.Len())
			e.Handle(ctx, ev)
			continue
		}

		if e.queue.Drained() {
			e.log.Info("engine stopping: queue closed")
			return nil
		}

		select {
		case <-ctx.Done():
			e.log.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()
		case <-e.queue.Wait():
		}
	}
}

// Drain handles queued events synchronously until the queue is empty,
// including events enqueued while draining.
func (e *Engine) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return nil
		}
		e.observer.QueueDepth(e.queue.Len())
		e.Handle(ctx, ev)
	}
}

// Stop closes the queue. Run returns once queued events are handled.
func (e *Engine) Stop() {
	e.queue.Close()
}

// outcome is what handling one event produced, for the journal.
type outcome struct {
	verdict     journal.Verdict
	typ         string
	station     string
	fingerprint string
	payload     []byte
	err         error
}

// Handle processes one event immediately, bypassing the queue.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	seq := e.clock.Next()

	var out outcome
	switch ev.Kind {
	case EventFrame:
		out = e.dispatch(ctx, seq, ev.Frame)
	case EventPullResult:
		out = e.reconcile(seq, ev.Pull)
	case EventInject:
		out = e.inject(seq, ev.Record)
	default:
		out = outcome{verdict: journal.VerdictRejected, err: fmt.Errorf("unknown event kind %d", ev.Kind)}
		e.log.Error("event processing failed", "error", out.err, "seq", seq)
	}

	e.observer.EventHandled(ev.Kind, out.verdict)
	e.record(ctx, seq, ev.Kind, out)
}

// insert renders one record, updates the snapshot and reports it.
func (e *Engine) insert(rec event.Record) (station.Entry, station.View) {
	entry := e.store.Insert(rec)
	e.observer.RecordInserted(rec.StationID)
	return entry, e.snapshot()
}

func (e *Engine) snapshot() station.View {
	v := e.store.View()
	e.view.Store(&v)
	return v
}

func (e *Engine) inject(seq int64, rec *event.Record) outcome {
	if rec == nil {
		e.log.Error("inject event missing record", "seq", seq)
		return outcome{verdict: journal.VerdictRejected, err: fmt.Errorf("inject event missing record")}
	}

	out := outcome{station: rec.StationID, typ: string(event.TypeNew)}

	// A record the journal cannot hold is not rendered.
	payload, err := rec.MarshalJSON()
	if err != nil {
		e.log.Warn("injected record rejected: not serializable", "error", err, "station", rec.StationID, "seq", seq)
		out.verdict = journal.VerdictRejected
		out.err = fmt.Errorf("marshal record: %w", err)
		return out
	}
	out.payload = payload

	if err := rec.Validate(); err != nil {
		e.log.Warn("injected record rejected", "error", err, "seq", seq)
		out.verdict = journal.VerdictRejected
		out.err = err
		return out
	}

	entry, view := e.insert(*rec)
	out.verdict = journal.VerdictAccepted
	out.fingerprint = e.fingerprint(*rec)

	e.log.Info("record injected", "station", rec.StationID, "sequence", rec.SequenceKey(), "seq", seq)
	e.publish(Change{Kind: ChangeInserted, Seq: seq, View: view, Entries: []station.Entry{entry}})
	return out
}

func (e *Engine) fingerprint(rec event.Record) string {
	fp, err := event.Fingerprint(rec)
	if err != nil {
		e.log.Warn("record fingerprint failed", "error", err, "station", rec.StationID)
		return ""
	}
	return fp
}

// record journals one handled event. Journal failures are logged and
// never affect the view.
func (e *Engine) record(ctx context.Context, seq int64, kind EventKind, out outcome) {
	if e.recorder == nil {
		return
	}

	if !e.sessionStarted {
		err := e.recorder.StartSession(ctx, journal.Session{
			ID:        e.session,
			StartedAt: e.now(),
			PushURL:   e.pushURL,
			StateURL:  e.stateURL,
		})
		if err != nil {
			e.log.Error("journal session start failed", "error", err)
			return
		}
		e.sessionStarted = true
	}

	entry := journal.Entry{
		Session:     e.session,
		Seq:         seq,
		RecordedAt:  e.now(),
		Kind:        journal.Kind(kind.String()),
		Type:        out.typ,
		Station:     out.station,
		Verdict:     out.verdict,
		Fingerprint: out.fingerprint,
		Payload:     out.payload,
	}
	if out.err != nil {
		entry.Error = out.err.Error()
	}

	if err := e.recorder.Append(ctx, entry); err != nil {
		e.log.Error("journal append failed", "error", err, "seq", seq, "kind", kind.String())
	}
}
