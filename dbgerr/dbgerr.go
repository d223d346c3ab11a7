// Package dbgerr implements the shared first-error-wins cell described in
// spec.md 5 and 7: the first worker to observe a fatal error stores it; every
// other worker observes it via Get and returns early. No exceptions-as-control-flow.
package dbgerr

import "sync/atomic"

// Kind classifies a fatal error per spec.md 7.
type Kind int

const (
	InputOpen Kind = iota
	TempIO
	OutputIO
	Config
	Internal
)

func (k Kind) String() string {
	switch k {
	case InputOpen:
		return "InputOpen"
	case TempIO:
		return "TempIO"
	case OutputIO:
		return "OutputIO"
	case Config:
		return "Config"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is a fatal, process-level outcome.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Slot is a single-writer, many-reader first-error cell.
type Slot struct {
	v atomic.Value // holds *Error
}

// Set stores err as the process's fatal outcome if none is set yet. Returns true
// if this call was the one that set it.
func (s *Slot) Set(kind Kind, err error) bool {
	if err == nil {
		return false
	}
	return s.v.CompareAndSwap(nil, &Error{Kind: kind, Err: err})
}

// Get returns the stored error, or nil if none has been set.
func (s *Slot) Get() *Error {
	v := s.v.Load()
	if v == nil {
		return nil
	}
	return v.(*Error)
}

// Failed reports whether a fatal error has been recorded.
func (s *Slot) Failed() bool {
	return s.Get() != nil
}
