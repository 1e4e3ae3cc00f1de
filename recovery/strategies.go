package recovery

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// StrictStrategy implements a fail-fast recovery strategy.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(ctx Context, err error, location Location) Action {
	return ActionFail
}

// LenientStrategy records every problem and lets decoding continue.
type LenientStrategy struct {
	Errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(ctx Context, err error, location Location) Action {
	s.Errors = append(s.Errors, wrap(err, location))
	return ActionWarn
}

// Err returns the recorded problems as a single error, or nil.
func (s *LenientStrategy) Err() error {
	var merr *multierror.Error
	for _, err := range s.Errors {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// Reset forgets recorded problems.
func (s *LenientStrategy) Reset() { s.Errors = nil }

func wrap(err error, location Location) error {
	if location.Field != "" {
		return fmt.Errorf("[%s/%s] offset %d: %w", location.Component, location.Field, location.ByteOffset, err)
	}
	return fmt.Errorf("[%s] offset %d: %w", location.Component, location.ByteOffset, err)
}

// OrLenient returns s, or a fresh LenientStrategy when s is nil.
func OrLenient(s Strategy) Strategy {
	if s == nil {
		return NewLenientStrategy()
	}
	return s
}
