package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by Scripted once every response is used.
var ErrScriptExhausted = errors.New("transport: scripted responses exhausted")

// Response is one scripted pull outcome. A non-empty Err fails the pull.
type Response struct {
	Body []byte
	Err  string
}

// Scripted answers pulls from a fixed list in call order.
// Safe for concurrent use.
type Scripted struct {
	mu        sync.Mutex
	responses []Response
	calls     int
}

// NewScripted creates a puller that returns responses in order.
func NewScripted(responses ...Response) *Scripted {
	return &Scripted{responses: responses}
}

// Pull returns the next scripted response.
func (s *Scripted) Pull(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.responses) == 0 {
		return nil, ErrScriptExhausted
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	if r.Err != "" {
		return nil, errors.New(r.Err)
	}
	return r.Body, nil
}

// Calls returns how many pulls have been requested.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
