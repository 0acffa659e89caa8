package journal

import (
	"context"
	"fmt"
	"time"
)

const timeLayout = time.RFC3339Nano

// StartSession records the start of a session. Starting the same session
// twice is a no-op.
func (j *Journal) StartSession(ctx context.Context, s Session) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, push_url, state_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, s.ID, s.StartedAt.UTC().Format(timeLayout), s.PushURL, s.StateURL)
	if err != nil {
		return fmt.Errorf("start session %s: %w", s.ID, err)
	}
	return nil
}

// Append writes one entry. The session must have been started, and seq
// must be unique within it.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO entries
		(session_id, seq, recorded_at, kind, type, station, verdict, error, fingerprint, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Session,
		e.Seq,
		e.RecordedAt.UTC().Format(timeLayout),
		string(e.Kind),
		e.Type,
		e.Station,
		string(e.Verdict),
		e.Error,
		e.Fingerprint,
		e.Payload,
	)
	if err != nil {
		return fmt.Errorf("append entry %s/%d: %w", e.Session, e.Seq, err)
	}
	return nil
}
