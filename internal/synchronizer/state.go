package synchronizer

import (
	"fmt"
	"slices"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// Status is the lifecycle phase of a Synchronizer.
type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusUninitialized, StatusLoading, StatusReady, StatusFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// ErrorKind says which step failed.
type ErrorKind int

const (
	AcquisitionFailure ErrorKind = iota + 1
	SubscriptionFailure
	WriteFailure
)

func (k ErrorKind) String() string {
	switch k {
	case AcquisitionFailure:
		return "acquisition_failure"
	case SubscriptionFailure:
		return "subscription_failure"
	case WriteFailure:
		return "write_failure"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	for _, candidate := range []ErrorKind{AcquisitionFailure, SubscriptionFailure, WriteFailure} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// StateError is the failure carried by a Failed state.
type StateError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *StateError) Error() string {
	return e.Message
}

// State is an immutable view of the synchronizer. Items are newest first.
// Version grows by one on every transition.
type State struct {
	Status    Status            `json:"status"`
	Items     []domain.Bookmark `json:"items"`
	Error     *StateError       `json:"error,omitempty"`
	Version   uint64            `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (s State) clone() State {
	out := s
	out.Items = slices.Clone(s.Items)
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	return out
}
