// Package render projects acquisition records into display fragments.
//
// Render is a pure function of the record and the configured parameter
// list. The Formatter turns fragments into terminal text using a Theme;
// PlainTheme gives byte-stable output for golden comparison.
package render

import (
	"slices"

	"github.com/roach88/mrqart/internal/event"
)

// DefaultParams is the ordered list of acquisition parameters shown in the
// detail table.
var DefaultParams = []string{
	"SequenceType",
	"Phase",
	"PED_major",
	"TR",
	"TE",
	"Matrix",
	"PixelResol",
	"FoV",
	"BWP",
	"BWPPE",
	"FA",
	"TA",
	"iPAT",
	"Shims",
}

// Missing is shown for a parameter absent from input or template.
const Missing = "-"

// Summary identifies the series on the fragment's first line.
type Summary struct {
	SeriesNumber string
	SequenceName string
	Project      string
}

// DeviationLine states one mismatch between template and input.
type DeviationLine struct {
	Param  string
	Expect string
	Have   string
}

// Row is one line of the detail table.
type Row struct {
	Param    string
	Input    string
	Template string
	Flagged  bool
}

// Fragment is the display projection of one record.
type Fragment struct {
	Station     string
	SequenceKey string
	Conforms    bool

	// Expanded is the initial disclosure state: collapsed for conforming
	// records, expanded otherwise.
	Expanded bool

	Summary    Summary
	Deviations []DeviationLine
	Table      []Row
}

// Renderer renders records against a fixed parameter list.
type Renderer struct {
	params []string
}

// New creates a Renderer for the given ordered parameter list.
// An empty list selects DefaultParams. The list is copied.
func New(params []string) *Renderer {
	if len(params) == 0 {
		params = DefaultParams
	}
	return &Renderer{params: slices.Clone(params)}
}

// Params returns the detail table parameters in order.
func (r *Renderer) Params() []string {
	return slices.Clone(r.params)
}

// Render projects a record into a new Fragment.
func (r *Renderer) Render(rec event.Record) Fragment {
	frag := Fragment{
		Station:     rec.StationID,
		SequenceKey: rec.SequenceKey(),
		Conforms:    rec.Conforms,
		Expanded:    !rec.Conforms,
		Summary: Summary{
			SeriesNumber: rec.Input.String(event.ParamSeriesNumber),
			SequenceName: rec.Input.String(event.ParamSequenceName),
			Project:      rec.Input.String(event.ParamProject),
		},
		Deviations: []DeviationLine{},
		Table:      make([]Row, 0, len(r.params)),
	}

	for _, name := range r.deviationOrder(rec.Errors) {
		dev := rec.Errors[name]
		frag.Deviations = append(frag.Deviations, DeviationLine{
			Param:  name,
			Expect: dev.Expect.String(),
			Have:   dev.Have.String(),
		})
	}

	for _, name := range r.params {
		_, flagged := rec.Errors[name]
		frag.Table = append(frag.Table, Row{
			Param:    name,
			Input:    valueOrMissing(rec.Input, name),
			Template: valueOrMissing(rec.Template, name),
			Flagged:  flagged,
		})
	}

	return frag
}

// deviationOrder lists error keys in parameter-list order, followed by
// keys outside the list in byte order.
func (r *Renderer) deviationOrder(errs map[string]event.Deviation) []string {
	order := make([]string, 0, len(errs))
	known := make(map[string]bool, len(r.params))
	for _, name := range r.params {
		known[name] = true
		if _, ok := errs[name]; ok {
			order = append(order, name)
		}
	}

	var rest []string
	for name := range errs {
		if !known[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(order, rest...)
}

// valueOrMissing shows Missing only for an absent parameter. A present
// empty string or null displays as empty.
func valueOrMissing(p event.Params, name string) string {
	if !p.Has(name) {
		return Missing
	}
	return p.String(name)
}
