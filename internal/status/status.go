package status

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Lowest and highest status codes that can be sent as a final response.
// net/http treats 1xx as interim headers, so they are not accepted.
const (
	MinCode = 200
	MaxCode = 599
)

// ErrEmptySequence is returned when no status code is configured.
var ErrEmptySequence = errors.New("status sequence must contain at least one code")

// InvalidCodeError reports a status code outside [MinCode, MaxCode].
type InvalidCodeError struct {
	Code int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid status code %d: must be between %d and %d", e.Code, MinCode, MaxCode)
}

// Strategy answers every request with the next code of an ordered sequence.
// The sequence never changes after New; the counter is the only shared
// mutable state and is only ever advanced with an atomic add.
type Strategy struct {
	codes   []int
	counter atomic.Uint64
}

// New validates codes and returns a strategy starting at the first one.
func New(codes []int) (*Strategy, error) {
	if len(codes) == 0 {
		return nil, ErrEmptySequence
	}
	for _, c := range codes {
		if err := Validate(c); err != nil {
			return nil, err
		}
	}

	seq := make([]int, len(codes))
	copy(seq, codes)
	return &Strategy{codes: seq}, nil
}

// Validate checks a single status code.
func Validate(code int) error {
	if code < MinCode || code > MaxCode {
		return &InvalidCodeError{Code: code}
	}
	return nil
}

// Codes returns a copy of the configured sequence.
func (s *Strategy) Codes() []int {
	out := make([]int, len(s.codes))
	copy(out, s.codes)
	return out
}

// Next consumes one counter value and returns the code it selects.
func (s *Strategy) Next() int {
	prev := s.counter.Add(1) - 1
	return s.codes[prev%uint64(len(s.codes))]
}

// Served reports how many codes have been handed out so far.
func (s *Strategy) Served() uint64 {
	return s.counter.Load()
}

func (s *Strategy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(s.Next())
}
