// Package testutil provides builders and deterministic helpers shared by
// tests across packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/mrqart/internal/event"
)

// RecordBuilder builds conforming records and lets tests add deviations.
type RecordBuilder struct {
	rec event.Record
}

// NewRecord starts a conforming record for a station and series.
func NewRecord(station, series, sequence string) *RecordBuilder {
	return &RecordBuilder{rec: event.Record{
		StationID: station,
		Input: event.Params{
			event.ParamStation:      event.StringValue(station),
			event.ParamSeriesNumber: event.StringValue(series),
			event.ParamSequenceName: event.StringValue(sequence),
		},
		Template: event.Params{},
		Errors:   map[string]event.Deviation{},
		Conforms: true,
	}}
}

// Project sets the Project input parameter.
func (b *RecordBuilder) Project(project string) *RecordBuilder {
	b.rec.Input[event.ParamProject] = event.StringValue(project)
	return b
}

// Param sets a parameter to the same value in input and template.
func (b *RecordBuilder) Param(name, value string) *RecordBuilder {
	b.rec.Input[name] = event.StringValue(value)
	b.rec.Template[name] = event.StringValue(value)
	return b
}

// Deviate records a mismatch: the template expects one value and the
// input has another. The record no longer conforms.
func (b *RecordBuilder) Deviate(name, expect, have string) *RecordBuilder {
	b.rec.Input[name] = event.StringValue(have)
	b.rec.Template[name] = event.StringValue(expect)
	b.rec.Errors[name] = event.Deviation{
		Expect: event.StringValue(expect),
		Have:   event.StringValue(have),
	}
	b.rec.Conforms = false
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() event.Record {
	return b.rec.Clone()
}

// JSON returns the record's wire form.
func (b *RecordBuilder) JSON() []byte {
	return mustMarshal(b.rec)
}

// NewFrame returns a "new" push frame carrying rec.
func NewFrame(rec event.Record) []byte {
	return mustMarshal(map[string]any{
		"type":    "new",
		"station": rec.StationID,
		"content": rec,
	})
}

// UpdateFrame returns an "update" push frame carrying a volume count, as
// the server sends while a series is still acquiring.
func UpdateFrame(station string, volumes int) []byte {
	return mustMarshal(map[string]any{
		"type":    "update",
		"station": station,
		"content": volumes,
	})
}

// FullState returns a pull body listing records in the given order.
// The order of keys in the output follows recs.
func FullState(recs ...event.Record) []byte {
	parts := make([]string, 0, len(recs))
	for _, rec := range recs {
		key := mustMarshal(rec.StationID)
		entry := mustMarshal(map[string]any{
			"station": rec.StationID,
			"type":    "new",
			"content": rec,
		})
		parts = append(parts, string(key)+":"+string(entry))
	}
	return []byte("{" + strings.Join(parts, ",") + "}")
}

func mustMarshal(v any) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal: %v", err))
	}
	return out
}
