// Package station holds the client view state: the per-station lists of
// rendered records, the station display order, the selector list and the
// freshness flag.
//
// A Store is owned by a single goroutine (the engine loop) and is not safe
// for concurrent use. Snapshots returned by View may be shared freely.
package station

import (
	"slices"

	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/render"
)

// Entry is one rendered record in a station view.
type Entry struct {
	// Seq is the store-wide insertion stamp. Higher is newer.
	Seq      int64
	Record   event.Record
	Fragment render.Fragment
}

// Store is the client state for one session.
type Store struct {
	renderer *render.Renderer

	// entries holds each station's entries oldest first.
	entries map[string][]Entry

	// order lists station containers top to bottom. New stations go on top.
	order []string

	// selector lists stations in first-seen order.
	selector []string

	fresh bool
	seq   int64
}

// NewStore creates an empty Store rendering with r. A nil renderer uses
// the default parameter list.
func NewStore(r *render.Renderer) *Store {
	if r == nil {
		r = render.New(nil)
	}
	return &Store{
		renderer: r,
		entries:  make(map[string][]Entry),
	}
}

// Insert renders rec and places it at the top of its station's view,
// creating the station container and selector option on first sight.
// Every insert is a new entry, even for a repeated sequence.
func (s *Store) Insert(rec event.Record) Entry {
	rec = rec.Clone()
	id := rec.StationID

	if _, ok := s.entries[id]; !ok {
		s.order = append([]string{id}, s.order...)
		s.selector = append(s.selector, id)
	}

	s.seq++
	entry := Entry{
		Seq:      s.seq,
		Record:   rec,
		Fragment: s.renderer.Render(rec),
	}
	s.entries[id] = append(s.entries[id], entry)
	s.fresh = true
	return entry
}

// RebuildFrom discards every view, container and selector option and
// inserts the full state in server order. Freshness never reverts.
func (s *Store) RebuildFrom(state event.FullState) []Entry {
	clear(s.entries)
	s.order = s.order[:0]
	s.selector = s.selector[:0]

	inserted := make([]Entry, 0, len(state))
	for _, st := range state {
		inserted = append(inserted, s.Insert(st.Record))
	}
	return inserted
}

// IsEmpty reports whether no record has ever been rendered.
func (s *Store) IsEmpty() bool {
	return !s.fresh
}

// Len returns the total number of entries across all stations.
func (s *Store) Len() int {
	n := 0
	for _, e := range s.entries {
		n += len(e)
	}
	return n
}

// Renderer returns the renderer used for inserts.
func (s *Store) Renderer() *render.Renderer {
	return s.renderer
}

// View returns a snapshot of the current state. Later mutations of the
// Store do not affect it.
func (s *Store) View() View {
	v := View{
		Stations: make([]StationView, 0, len(s.order)),
		Selector: slices.Clone(s.selector),
		Fresh:    s.fresh,
	}
	for _, id := range s.order {
		src := s.entries[id]
		newest := make([]Entry, len(src))
		for i, e := range src {
			newest[len(src)-1-i] = e
		}
		v.Stations = append(v.Stations, StationView{ID: id, Entries: newest})
	}
	return v
}
