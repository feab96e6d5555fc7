package errors

import "fmt"

// ErrValidation indicates a malformed or incomplete request. It is
// returned before any state mutation occurs.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ErrNotFound indicates an unknown entity ID
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConflict indicates a state conflict: a duplicate relation triple,
// a duplicate supplier name, or a decision against an already-imported
// recommendation.
type ErrConflict struct {
	Resource string
	Message  string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// ErrInvalidStateTransition indicates an illegal lifecycle transition
type ErrInvalidStateTransition struct {
	From fmt.Stringer
	To   fmt.Stringer
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrExternalProvider indicates an adapter failure: timeout, non-2xx
// response, or an operation the provider does not offer. Retryable
// unless Unsupported is set. The message must never carry credential
// material.
type ErrExternalProvider struct {
	Provider    string
	Message     string
	Unsupported bool
}

func (e *ErrExternalProvider) Error() string {
	if e.Unsupported {
		return fmt.Sprintf("provider %s: operation not supported", e.Provider)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

// Retryable reports whether the failure is eligible for retry.
func (e *ErrExternalProvider) Retryable() bool {
	return !e.Unsupported
}

// ErrMarginTooLow is the pricing engine's refusal to recommend a price
// below the configured minimum margin. It is a business decision point
// and is always surfaced to the caller, never silently overridden.
type ErrMarginTooLow struct {
	Margin  float64
	Minimum float64
}

func (e *ErrMarginTooLow) Error() string {
	return fmt.Sprintf("margin %.2f below minimum %.2f", e.Margin, e.Minimum)
}

// ErrRetryExhausted indicates a placement that failed past the
// configured attempt budget. The order is terminally failed and must be
// handled through the administrator queue.
type ErrRetryExhausted struct {
	OrderID  string
	Attempts int
	Last     error
}

func (e *ErrRetryExhausted) Error() string {
	return fmt.Sprintf("order %s: retries exhausted after %d attempts: %v", e.OrderID, e.Attempts, e.Last)
}

func (e *ErrRetryExhausted) Unwrap() error {
	return e.Last
}

// ErrUnauthorized indicates a missing or invalid admin token
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}
