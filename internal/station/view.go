package station

// All is the selector value that shows every station.
const All = "all"

// StationView is one station's entries, newest first.
type StationView struct {
	ID      string
	Entries []Entry
}

// View is an immutable snapshot of the client state. Records and
// fragments are shared with the Store, which never mutates them after
// insert.
type View struct {
	// Stations in display order, top first.
	Stations []StationView

	// Selector lists station ids in first-seen order. All is implied.
	Selector []string

	// Fresh is true once any record has been rendered.
	Fresh bool
}

// Resolve maps a selector choice to a known station id, or All when the
// choice is All or names no known station.
func (v View) Resolve(selected string) string {
	for _, id := range v.Selector {
		if id == selected {
			return id
		}
	}
	return All
}

// Visible returns the stations shown for a selector choice.
func (v View) Visible(selected string) []StationView {
	sel := v.Resolve(selected)
	if sel == All {
		return v.Stations
	}
	for _, sv := range v.Stations {
		if sv.ID == sel {
			return []StationView{sv}
		}
	}
	return nil
}

// Station returns the view of one station.
func (v View) Station(id string) (StationView, bool) {
	for _, sv := range v.Stations {
		if sv.ID == id {
			return sv, true
		}
	}
	return StationView{}, false
}

// Order returns station ids in display order.
func (v View) Order() []string {
	ids := make([]string, len(v.Stations))
	for i, sv := range v.Stations {
		ids[i] = sv.ID
	}
	return ids
}

// Len returns the total number of entries.
func (v View) Len() int {
	n := 0
	for _, sv := range v.Stations {
		n += len(sv.Entries)
	}
	return n
}

// Options returns the selector choices as presented: All first, then the
// stations in first-seen order.
func (v View) Options() []string {
	return append([]string{All}, v.Selector...)
}
