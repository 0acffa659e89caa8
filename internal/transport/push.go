package transport

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

const (
	// DefaultReconnectDelay is the wait between a dropped connection and
	// the next dial.
	DefaultReconnectDelay = 5 * time.Second

	// DefaultReadLimit bounds a single frame. Records with large shim or
	// matrix arrays exceed the websocket library's default.
	DefaultReadLimit = 1 << 20
)

// Sink receives raw push frames. Implemented by *engine.Engine.
type Sink interface {
	EnqueueFrame(ctx context.Context, frame []byte) error
}

// Push reads frames from the server's websocket.
type Push struct {
	url       string
	sink      Sink
	delay     time.Duration
	readLimit int64
	log       *slog.Logger

	connects atomic.Int64
	frames   atomic.Int64
}

// PushOption configures a Push.
type PushOption func(*Push)

// WithReconnectDelay sets the wait before redialing.
func WithReconnectDelay(d time.Duration) PushOption {
	return func(p *Push) { p.delay = d }
}

// WithReadLimit sets the maximum frame size in bytes.
func WithReadLimit(n int64) PushOption {
	return func(p *Push) { p.readLimit = n }
}

// WithPushLogger sets the logger.
func WithPushLogger(l *slog.Logger) PushOption {
	return func(p *Push) { p.log = l }
}

// NewPush creates a Push for the websocket at url delivering to sink.
func NewPush(url string, sink Sink, opts ...PushOption) *Push {
	p := &Push{
		url:       url,
		sink:      sink,
		delay:     DefaultReconnectDelay,
		readLimit: DefaultReadLimit,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connects returns how many connections have been established.
func (p *Push) Connects() int64 {
	return p.connects.Load()
}

// Frames returns how many frames have been delivered to the sink.
func (p *Push) Frames() int64 {
	return p.frames.Load()
}

// Run dials, reads and delivers frames until ctx ends or the sink stops
// accepting frames. Connection failures are logged and retried after the
// reconnect delay. Returns ctx.Err() when the context ends, or the sink's
// error.
func (p *Push) Run(ctx context.Context) error {
	for {
		err := p.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if sinkErr, ok := err.(sinkError); ok {
			p.log.Info("push stopping: sink closed", "error", sinkErr.err)
			return sinkErr.err
		}

		p.log.Warn("push connection lost", "error", err, "retry_in", p.delay)

		timer := time.NewTimer(p.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// sinkError marks a failure to deliver, which ends Run instead of
// triggering a redial.
type sinkError struct{ err error }

func (e sinkError) Error() string { return e.err.Error() }

// session runs one connection to completion.
func (p *Push) session(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, p.url, nil)
	if err != nil {
		return &TransportError{Op: "dial", URL: p.url, Err: err}
	}
	defer conn.CloseNow()

	conn.SetReadLimit(p.readLimit)
	n := p.connects.Add(1)
	p.log.Info("push connected", "url", p.url, "connection", n)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return &TransportError{Op: "read", URL: p.url, Err: err}
		}
		if typ != websocket.MessageText {
			p.log.Debug("push binary frame", "bytes", len(data))
		}

		if err := p.sink.EnqueueFrame(ctx, data); err != nil {
			if ctx.Err() == nil {
				conn.Close(websocket.StatusNormalClosure, "client stopping")
			}
			return sinkError{err: err}
		}
		p.frames.Add(1)
	}
}
