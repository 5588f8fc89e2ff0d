package content

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnconfigured means the content source has no usable project id.
	ErrUnconfigured = errors.New("content: source not configured")
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("content: request timed out")

	ErrMissingAsset   = errors.New("content: missing asset")
	ErrMalformedAsset = errors.New("content: malformed asset reference")
)

// TimeoutError reports that a source operation exceeded its deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("content: %s timed out after %s", e.Op, e.After)
}

// Is makes errors.Is(err, ErrTimeout) hold.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// FetchError is a transport failure or a non-success response.
type FetchError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("content: %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("content: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError means the store answered but the payload could not be decoded.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("content: %s: decode: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errorClass names the taxonomy bucket of err for log records.
func errorClass(err error) string {
	var (
		fe *FetchError
		de *DecodeError
	)
	switch {
	case errors.Is(err, ErrUnconfigured):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &fe):
		return "fetch"
	case errors.As(err, &de):
		return "decode"
	default:
		return "unknown"
	}
}
