package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sessions returns every session, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, push_url, state_url
		FROM sessions
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Session returns one session by id, or ErrNotFound.
func (j *Journal) Session(ctx context.Context, id string) (Session, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, started_at, push_url, state_url
		FROM sessions
		WHERE id = ?
	`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, err
}

// LatestSession returns the most recently started session, or ErrNotFound
// when the journal is empty.
func (j *Journal) LatestSession(ctx context.Context) (Session, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, started_at, push_url, state_url
		FROM sessions
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// Entries returns the entries matching f in logical order.
func (j *Journal) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Session != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.Session)
	}
	if f.Station != "" {
		where = append(where, "station = ?")
		args = append(args, f.Station)
	}

	query := `
		SELECT id, session_id, seq, recorded_at, kind, type, station, verdict, error, fingerprint, payload
		FROM entries`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY session_id COLLATE BINARY ASC, seq ASC, id ASC"

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e             Entry
			recordedAt    string
			kind, verdict string
		)
		if err := rows.Scan(
			&e.ID, &e.Session, &e.Seq, &recordedAt, &kind, &e.Type, &e.Station,
			&verdict, &e.Error, &e.Fingerprint, &e.Payload,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at for entry %d: %w", e.ID, err)
		}
		e.Kind = Kind(kind)
		e.Verdict = Verdict(verdict)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		s         Session
		startedAt string
	)
	if err := row.Scan(&s.ID, &startedAt, &s.PushURL, &s.StateURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Session{}, fmt.Errorf("parse started_at for session %s: %w", s.ID, err)
	}
	s.StartedAt = t
	return s, nil
}
