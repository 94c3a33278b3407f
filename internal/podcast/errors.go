package podcast

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a podcast, version, document or job
	// lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrNoChanges is returned when an update supplies nothing to change.
	ErrNoChanges = errors.New("no changes supplied")

	// ErrNoSegments is returned when audio generation is requested for a
	// script with no segments.
	ErrNoSegments = errors.New("script has no segments")

	// ErrGenerationInFlight is returned when a dispatch lock is held but
	// the in-flight job row is not visible yet.
	ErrGenerationInFlight = errors.New("generation already in flight")
)

// InvalidTransitionError is returned when an action is attempted from a
// status that forbids it. The current status is carried so clients can
// surface it.
type InvalidTransitionError struct {
	Current Status
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while status is %q", e.Action, e.Current)
}

// ExternalErrorKind distinguishes the failure modes of external
// collaborators.
type ExternalErrorKind string

const (
	ExternalUnavailable   ExternalErrorKind = "service_unavailable"
	ExternalRateLimited   ExternalErrorKind = "rate_limited"
	ExternalQuotaExceeded ExternalErrorKind = "quota_exceeded"
	ExternalStorage       ExternalErrorKind = "storage_failure"
)

// ExternalError wraps a failure from an external collaborator. Transport
// status codes are mapped elsewhere; the domain layer only knows kinds.
type ExternalError struct {
	Kind    ExternalErrorKind
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Kind)
}

func (e *ExternalError) Unwrap() error { return e.Err }
