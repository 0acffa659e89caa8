package journal

import "time"

// Kind is the engine event an entry records.
type Kind string

const (
	KindFrame  Kind = "frame"
	KindPull   Kind = "pull"
	KindInject Kind = "inject"
)

// Verdict is what the engine did with an event.
type Verdict string

const (
	// VerdictAccepted means the event changed or drove the view: a record
	// was rendered, a pull was issued or a rebuild applied.
	VerdictAccepted Verdict = "accepted"

	// VerdictRejected means the payload failed to parse or validate.
	VerdictRejected Verdict = "rejected"

	// VerdictIgnored means the event was valid but required no action.
	VerdictIgnored Verdict = "ignored"

	// VerdictFailed means a pull did not produce a usable state.
	VerdictFailed Verdict = "failed"
)

// Session describes one engine lifetime.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	PushURL   string    `json:"push_url,omitempty"`
	StateURL  string    `json:"state_url,omitempty"`
}

// Entry is one processed event.
type Entry struct {
	ID          int64     `json:"id"`
	Session     string    `json:"session"`
	Seq         int64     `json:"seq"`
	RecordedAt  time.Time `json:"recorded_at"`
	Kind        Kind      `json:"kind"`
	Type        string    `json:"type,omitempty"`
	Station     string    `json:"station,omitempty"`
	Verdict     Verdict   `json:"verdict"`
	Error       string    `json:"error,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Payload     []byte    `json:"-"`
}

// Filter narrows an entry query. Empty fields match everything.
type Filter struct {
	Session string
	Station string
}
