package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Well-known input parameters used for identity and the summary line.
const (
	ParamStation      = "Station"
	ParamSeriesNumber = "SeriesNumber"
	ParamSequenceName = "SequenceName"
	ParamProject      = "Project"
)

// Deviation is one parameter whose observed value differs from the
// template.
type Deviation struct {
	Expect Value `json:"expect"`
	Have   Value `json:"have"`
}

// Record is one acquisition event: the observed header of the first
// volume of a series, the template it is checked against, and the verdict.
type Record struct {
	// StationID identifies the scanner. Never empty on a parsed Record.
	StationID string

	// Input holds the observed header parameters.
	Input Params

	// Template holds the expected parameters. Empty when the server found
	// no template for the project and sequence.
	Template Params

	// Errors holds every parameter where Input deviates from Template.
	Errors map[string]Deviation

	// Conforms is true iff Errors is empty.
	Conforms bool
}

// SequenceKey identifies the acquisition series within its station.
func (r Record) SequenceKey() string {
	return r.Input.String(ParamSeriesNumber) + "/" + r.Input.String(ParamSequenceName)
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if r.StationID == "" {
		return &ParseError{Code: ErrCodeMissingStation, Message: "record has no station"}
	}
	if r.Conforms != (len(r.Errors) == 0) {
		return &ParseError{
			Code:    ErrCodeInvariantViolation,
			Field:   "conforms",
			Message: fmt.Sprintf("conforms=%t with %d errors", r.Conforms, len(r.Errors)),
		}
	}
	return nil
}

// Clone returns a copy that shares no maps with r.
func (r Record) Clone() Record {
	out := r
	out.Input = r.Input.Clone()
	out.Template = r.Template.Clone()
	if r.Errors != nil {
		out.Errors = make(map[string]Deviation, len(r.Errors))
		for k, v := range r.Errors {
			out.Errors[k] = v
		}
	}
	return out
}

// recordWire is the JSON form of a Record. Pointers distinguish absent
// keys from zero values.
type recordWire struct {
	Station  *string               `json:"station,omitempty"`
	Input    *Params               `json:"input"`
	Template *Params               `json:"template"`
	Errors   *map[string]Deviation `json:"errors"`
	Conforms *bool                 `json:"conforms"`
}

// MarshalJSON implements json.Marshaler using the server's wire form.
func (r Record) MarshalJSON() ([]byte, error) {
	input := r.Input
	if input == nil {
		input = Params{}
	}
	template := r.Template
	if template == nil {
		template = Params{}
	}
	errs := r.Errors
	if errs == nil {
		errs = map[string]Deviation{}
	}
	conforms := r.Conforms
	wire := recordWire{
		Input:    &input,
		Template: &template,
		Errors:   &errs,
		Conforms: &conforms,
	}
	if r.StationID != "" {
		station := r.StationID
		wire.Station = &station
	}
	return json.Marshal(wire)
}

// ParseRecord decodes a bare Record, as accepted by the debug injection
// surface.
func ParseRecord(data []byte) (Record, error) {
	return parseRecord(data, "record", "")
}

// parseRecord decodes and validates a Record. The station is taken from
// the record's own "station" key, then fallbackStation, then the
// Station input parameter.
func parseRecord(raw []byte, field, fallbackStation string) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return Record{}, missing(field)
	}
	if trimmed[0] != '{' {
		return Record{}, &ParseError{Code: ErrCodeBadContent, Field: field, Message: "record must be a JSON object"}
	}

	var wire recordWire
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return Record{}, malformed(field, err)
	}

	switch {
	case wire.Input == nil:
		return Record{}, missing(field + ".input")
	case wire.Template == nil:
		return Record{}, missing(field + ".template")
	case wire.Errors == nil:
		return Record{}, missing(field + ".errors")
	case wire.Conforms == nil:
		return Record{}, missing(field + ".conforms")
	}

	rec := Record{
		Input:    *wire.Input,
		Template: *wire.Template,
		Errors:   *wire.Errors,
		Conforms: *wire.Conforms,
	}
	if rec.Input == nil {
		rec.Input = Params{}
	}
	if rec.Template == nil {
		rec.Template = Params{}
	}
	if rec.Errors == nil {
		rec.Errors = map[string]Deviation{}
	}

	switch {
	case wire.Station != nil && *wire.Station != "":
		rec.StationID = *wire.Station
	case fallbackStation != "":
		rec.StationID = fallbackStation
	default:
		rec.StationID = rec.Input.String(ParamStation)
	}

	if err := rec.Validate(); err != nil {
		if pe, ok := err.(*ParseError); ok && pe.Field != "" {
			pe.Field = field + "." + pe.Field
		} else if ok {
			pe.Field = field
		}
		return Record{}, err
	}
	return rec, nil
}
