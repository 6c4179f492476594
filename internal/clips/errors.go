package clips

import (
	"errors"
	"fmt"
)

// Kind classifies why an upload was rejected.
type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindInsufficientCapacity Kind = "insufficient_capacity"
	KindPayloadTooLarge      Kind = "payload_too_large"
	KindSizeMismatch         Kind = "size_mismatch"
	KindInvalidVideo         Kind = "invalid_video"
	KindDurationOutOfRange   Kind = "duration_out_of_range"
	KindNotConfigured        Kind = "not_configured"
	KindAborted              Kind = "aborted"
	KindStorage              Kind = "storage"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrSizeMismatch         = errors.New("size mismatch")
	ErrInvalidVideo         = errors.New("invalid video")
	ErrDurationOutOfRange   = errors.New("duration out of range")
	ErrNotConfigured        = errors.New("duration bounds not configured")
	ErrAborted              = errors.New("upload aborted")
	ErrStorage              = errors.New("storage failure")

	// ErrInvalidRange is returned by DurationGate.Configure when max < min.
	ErrInvalidRange = errors.New("max has to be greater than min")

	// ErrClipNotFound is returned when a committed clip does not exist.
	ErrClipNotFound = errors.New("clip not found")
)

var kindSentinels = map[Kind]error{
	KindInvalidInput:         ErrInvalidInput,
	KindInsufficientCapacity: ErrInsufficientCapacity,
	KindPayloadTooLarge:      ErrPayloadTooLarge,
	KindSizeMismatch:         ErrSizeMismatch,
	KindInvalidVideo:         ErrInvalidVideo,
	KindDurationOutOfRange:   ErrDurationOutOfRange,
	KindNotConfigured:        ErrNotConfigured,
	KindAborted:              ErrAborted,
	KindStorage:              ErrStorage,
}

// AdmissionError is the structured failure returned by Service.Upload.
// Declared and Received are set for size failures, Duration for
// DurationOutOfRange.
type AdmissionError struct {
	Kind     Kind
	Reason   string
	Declared int64
	Received int64
	Duration float64
	Err      error
}

func (e *AdmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *AdmissionError) Unwrap() error { return e.Err }

// Is lets errors.Is match an AdmissionError against the sentinel of its kind.
func (e *AdmissionError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the Kind carried by err, or "" when err is not an AdmissionError.
func KindOf(err error) Kind {
	var ae *AdmissionError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func invalidInput(reason string) *AdmissionError {
	return &AdmissionError{Kind: KindInvalidInput, Reason: reason}
}

func insufficientCapacity(declared, remaining int64) *AdmissionError {
	return &AdmissionError{
		Kind:     KindInsufficientCapacity,
		Reason:   fmt.Sprintf("Not enough disk space. (%d requested, %d left)", declared, remaining),
		Declared: declared,
	}
}

func payloadTooLarge(declared, received int64) *AdmissionError {
	return &AdmissionError{
		Kind:     KindPayloadTooLarge,
		Reason:   fmt.Sprintf("Payload too large. (%d / %d)", received, declared),
		Declared: declared,
		Received: received,
	}
}

func sizeMismatch(declared, received int64) *AdmissionError {
	return &AdmissionError{
		Kind:     KindSizeMismatch,
		Reason:   fmt.Sprintf("Invalid size given, size is %d but received %d", declared, received),
		Declared: declared,
		Received: received,
	}
}

func invalidVideo(err error) *AdmissionError {
	return &AdmissionError{Kind: KindInvalidVideo, Reason: "Invalid video", Err: err}
}

func durationOutOfRange(d float64) *AdmissionError {
	return &AdmissionError{
		Kind:     KindDurationOutOfRange,
		Reason:   fmt.Sprintf("Video is too short / too long. (Duration: %gs)", d),
		Duration: d,
	}
}

func notConfigured() *AdmissionError {
	return &AdmissionError{Kind: KindNotConfigured, Reason: "Validator has not been initialized."}
}

func aborted(received int64, err error) *AdmissionError {
	return &AdmissionError{Kind: KindAborted, Reason: "Upload aborted", Received: received, Err: err}
}

func storageFailure(op string, err error) *AdmissionError {
	return &AdmissionError{Kind: KindStorage, Reason: "Storage failure: " + op, Err: err}
}
