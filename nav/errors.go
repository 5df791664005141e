package nav

import (
	"errors"
	"fmt"
)

// Sentinel errors for orchestrator construction.
var (
	// ErrNilStore indicates no cache store was configured.
	ErrNilStore = errors.New("nav: store is nil")

	// ErrNilPopulate indicates no population function was configured.
	ErrNilPopulate = errors.New("nav: populate function is nil")

	// ErrNilTree indicates a nil route tree was passed.
	ErrNilTree = errors.New("nav: route tree is nil")
)

// PopulationError reports an upstream fetch/render failure. The failure is
// never cached: the key stays a miss, and every single-flight waiter on the
// key receives the same error.
type PopulationError struct {
	Route       string
	Slot        string
	Fingerprint string
	Err         error
}

func (e *PopulationError) Error() string {
	return fmt.Sprintf("nav: population failed for %s#%s (fingerprint %s): %v",
		e.Route, e.Slot, e.Fingerprint, e.Err)
}

func (e *PopulationError) Unwrap() error {
	return e.Err
}

// StaleServeError reports that a stale entry's refetch failed and no stale
// artifact was available to fall back on. When a stale artifact exists, the
// orchestrator serves it instead of returning this error.
type StaleServeError struct {
	Route       string
	Slot        string
	Fingerprint string
	Err         error
}

func (e *StaleServeError) Error() string {
	return fmt.Sprintf("nav: refetch failed for %s#%s (fingerprint %s) with no stale artifact: %v",
		e.Route, e.Slot, e.Fingerprint, e.Err)
}

func (e *StaleServeError) Unwrap() error {
	return e.Err
}
