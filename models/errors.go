// backend/models/errors.go
package models

import "fmt"

// Typed errors crossing the service boundary. Each carries a machine-readable
// kind the HTTP layer maps to a status code; messages are safe to return to
// clients (no stack traces, no SQL).

// ValidationError is bad input shape or range. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Kind() string  { return "validation_error" }

// NotFoundError means the requested entity or record is absent after all
// fallbacks were exhausted.
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}
func (e *NotFoundError) Kind() string { return "not_found" }

// UpstreamError is a government API failure after retries were exhausted.
// Timeout distinguishes a timed-out call from other transport failures.
type UpstreamError struct {
	Message string
	Timeout bool
}

func (e *UpstreamError) Error() string { return e.Message }
func (e *UpstreamError) Kind() string {
	if e.Timeout {
		return "upstream_timeout"
	}
	return "upstream_failure"
}

// ConflictError is a duplicate-key violation on a non-idempotent insert path.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
func (e *ConflictError) Kind() string  { return "conflict" }

// StorageError wraps a durable-store failure. Fatal for the request.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
func (e *StorageError) Kind() string  { return "storage_error" }
