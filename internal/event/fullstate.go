package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// StationState is the most recent record the server holds for a station.
type StationState struct {
	Station string
	Record  Record
}

// FullState is the authoritative server state in the order the server
// listed the stations.
type FullState []StationState

// Stations returns the station ids in order.
func (s FullState) Stations() []string {
	out := make([]string, len(s))
	for i, st := range s {
		out[i] = st.Station
	}
	return out
}

type stateEntryWire struct {
	Content json.RawMessage `json:"content"`
}

// ParseFullState decodes the pull endpoint's body:
//
//	{"MR1": {"station": "MR1", "type": "new", "content": {...}}, ...}
//
// The object is read as a token stream so the server's key order is kept.
// Each key is the station id of its entry. Any entry failing to parse, a
// repeated key, or a record naming another station rejects the whole body.
func ParseFullState(data []byte) (FullState, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &ParseError{Code: ErrCodeBadContent, Message: "full state must be a JSON object"}
	}

	state := FullState{}
	seen := map[string]struct{}{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, &ParseError{Code: ErrCodeMalformedJSON, Message: fmt.Sprintf("unexpected token %v", tok)}
		}

		field := fmt.Sprintf("state[%s]", key)

		var entry stateEntryWire
		if err := dec.Decode(&entry); err != nil {
			return nil, malformed(field, err)
		}
		if entry.Content == nil {
			return nil, missing(field + ".content")
		}

		// Keys are the station ids, so each station appears at most once.
		if key == "" {
			return nil, &ParseError{Code: ErrCodeMissingStation, Field: field, Message: "full state key must name a station"}
		}
		if _, dup := seen[key]; dup {
			return nil, &ParseError{Code: ErrCodeBadContent, Field: field, Message: "station listed twice"}
		}
		seen[key] = struct{}{}

		rec, err := parseRecord(entry.Content, field+".content", key)
		if err != nil {
			return nil, err
		}
		if rec.StationID != key {
			return nil, &ParseError{
				Code:    ErrCodeBadContent,
				Field:   field + ".content.station",
				Message: fmt.Sprintf("record names station %q under key %q", rec.StationID, key),
			}
		}
		state = append(state, StationState{Station: key, Record: rec})
	}

	if _, err := dec.Token(); err != nil {
		return nil, malformed("", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Code: ErrCodeMalformedJSON, Message: "trailing data after full state"}
	}

	return state, nil
}
