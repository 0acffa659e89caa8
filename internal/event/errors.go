package event

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes parse failures.
type ErrorCode string

const (
	// ErrCodeMalformedJSON indicates the payload is not valid JSON.
	ErrCodeMalformedJSON ErrorCode = "MALFORMED_JSON"

	// ErrCodeMissingField indicates a required key is absent or null.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeInvariantViolation indicates conforms disagrees with errors.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeMissingStation indicates no station could be resolved.
	ErrCodeMissingStation ErrorCode = "MISSING_STATION"

	// ErrCodeBadContent indicates content has the wrong JSON shape.
	ErrCodeBadContent ErrorCode = "BAD_CONTENT"
)

// ParseError is returned for any payload that cannot be turned into a
// Notification, Record or FullState. Callers drop the payload; no state
// changes.
type ParseError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Field is the dotted path of the offending key, if known.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying decoder error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsInvariantViolation returns true if err is a ParseError raised because
// conforms and errors disagree.
func IsInvariantViolation(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeInvariantViolation
	}
	return false
}

// CodeOf returns the ParseError code carried by err, or "" if err is not
// a ParseError.
func CodeOf(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func malformed(field string, err error) *ParseError {
	return &ParseError{Code: ErrCodeMalformedJSON, Field: field, Message: "invalid JSON", Err: err}
}

func missing(field string) *ParseError {
	return &ParseError{Code: ErrCodeMissingField, Field: field, Message: "required field missing"}
}
