package event

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Type is the notification type carried in the envelope.
type Type string

const (
	// TypeNew announces the first volume of a series not seen before.
	TypeNew Type = "new"

	// TypeUpdate announces another volume of the current series.
	TypeUpdate Type = "update"
)

// Notification is a parsed push frame.
type Notification struct {
	// Type is the envelope type. Types other than TypeNew and TypeUpdate
	// are passed through undecoded.
	Type Type

	// Station is the resolved station id. May be empty for an update that
	// names no station.
	Station string

	// Record is set for every "new" notification, and for "update"
	// notifications whose content is a record.
	Record *Record

	// Volume is the running volume count sent as "update" content by the
	// server. HasVolume reports whether it was present.
	Volume    int64
	HasVolume bool
}

type envelopeWire struct {
	Type    *string         `json:"type"`
	Station string          `json:"station"`
	Content json.RawMessage `json:"content"`
}

// ParseNotification decodes one push frame.
//
// Returns a *ParseError for malformed JSON, a missing type, a "new" frame
// without a valid record, or an "update" frame whose content is neither an
// object nor a volume count.
func ParseNotification(data []byte) (Notification, error) {
	var env envelopeWire
	if err := json.Unmarshal(data, &env); err != nil {
		return Notification{}, malformed("", err)
	}
	if env.Type == nil {
		return Notification{}, missing("type")
	}

	n := Notification{Type: Type(*env.Type), Station: env.Station}

	switch n.Type {
	case TypeNew:
		rec, err := parseRecord(env.Content, "content", env.Station)
		if err != nil {
			return Notification{}, err
		}
		n.Record = &rec
		n.Station = rec.StationID

	case TypeUpdate:
		if err := parseUpdateContent(&n, env.Content); err != nil {
			return Notification{}, err
		}
	}

	return n, nil
}

// parseUpdateContent accepts an absent content, a volume count, a
// record, or any other object.
func parseUpdateContent(n *Notification, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var partial struct {
			Station  string          `json:"station"`
			Input    json.RawMessage `json:"input"`
			Template json.RawMessage `json:"template"`
			Errors   json.RawMessage `json:"errors"`
			Conforms json.RawMessage `json:"conforms"`
		}
		if err := json.Unmarshal(trimmed, &partial); err != nil {
			return malformed("content", err)
		}

		// Any record key makes the content a record, held to the same
		// rules as "new" content. Other objects are plain triggers.
		if partial.Input != nil || partial.Template != nil || partial.Errors != nil || partial.Conforms != nil {
			rec, err := parseRecord(trimmed, "content", n.Station)
			if err != nil {
				return err
			}
			n.Record = &rec
			n.Station = rec.StationID
			return nil
		}
		if partial.Station != "" {
			n.Station = partial.Station
		}
		return nil

	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		count, err := strconv.ParseInt(string(trimmed), 10, 64)
		if err != nil {
			return &ParseError{Code: ErrCodeBadContent, Field: "content", Message: "volume count must be an integer", Err: err}
		}
		n.Volume = count
		n.HasVolume = true
		return nil

	default:
		return &ParseError{Code: ErrCodeBadContent, Field: "content", Message: "update content must be a record or a volume count"}
	}
}
