// Package apperrors defines the error-kind taxonomy every core component
// returns. Each kind corresponds to a distinct surface behavior: whether
// the orchestrator retries, reloads and single-retries, or simply
// propagates the failure to the caller.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports a manifest or variable validation failure.
// Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// NotFoundError reports a missing product, deployment, environment, or
// snapshot. Never retried.
type NotFoundError struct {
	ResourceType string
	ResourceName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.ResourceType, e.ResourceName)
}

func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceName: resourceName}
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// Per-resource constructors.
var (
	NewProductNotFoundError     = func(name string) *NotFoundError { return NewNotFoundError("product", name) }
	NewDeploymentNotFoundError  = func(name string) *NotFoundError { return NewNotFoundError("deployment", name) }
	NewEnvironmentNotFoundError = func(name string) *NotFoundError { return NewNotFoundError("environment", name) }
	NewSnapshotNotFoundError    = func(name string) *NotFoundError { return NewNotFoundError("health snapshot", name) }
	NewRegistryNotFoundError    = func(name string) *NotFoundError { return NewNotFoundError("registry", name) }
)

// PreconditionViolatedError reports an illegal state transition (e.g.
// upgrade requested on an aggregate in Deploying status). Never retried.
type PreconditionViolatedError struct {
	Operation string
	State     string
	Allowed   []string
}

func (e *PreconditionViolatedError) Error() string {
	return fmt.Sprintf("%s not allowed from state %s (allowed: %v)", e.Operation, e.State, e.Allowed)
}

func NewPreconditionViolatedError(operation, state string, allowed []string) *PreconditionViolatedError {
	return &PreconditionViolatedError{Operation: operation, State: state, Allowed: allowed}
}

func IsPreconditionViolated(err error) bool {
	var e *PreconditionViolatedError
	return errors.As(err, &e)
}

// ConcurrencyConflictError reports an optimistic-concurrency token
// mismatch. The orchestrator reloads and single-retries; a second
// conflict surfaces to the caller.
type ConcurrencyConflictError struct {
	EntityID string
	Expected int64
	Actual   int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on %s: expected version %d, found %d", e.EntityID, e.Expected, e.Actual)
}

func NewConcurrencyConflictError(entityID string, expected, actual int64) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{EntityID: entityID, Expected: expected, Actual: actual}
}

func IsConcurrencyConflict(err error) bool {
	var e *ConcurrencyConflictError
	return errors.As(err, &e)
}

// PullFailureError reports an image pull failure. Recovered locally iff a
// local image copy exists (warning only); otherwise converted into a
// deployment error.
type PullFailureError struct {
	ImageRef string
	Cause    error
	AuthHint bool
}

func (e *PullFailureError) Error() string {
	msg := fmt.Sprintf("failed to pull image %q: %v", e.ImageRef, e.Cause)
	if e.AuthHint {
		msg += " (registry credentials are configured)"
	}
	return msg
}

func (e *PullFailureError) Unwrap() error { return e.Cause }

func NewPullFailureError(imageRef string, cause error, authHint bool) *PullFailureError {
	return &PullFailureError{ImageRef: imageRef, Cause: cause, AuthHint: authHint}
}

func IsPullFailure(err error) bool {
	var e *PullFailureError
	return errors.As(err, &e)
}

// ContainerRuntimeError reports a create/start/remove failure. Captured
// per-step; the whole deployment's success flips to false but the message
// surfaces verbatim.
type ContainerRuntimeError struct {
	Operation string
	Container string
	Cause     error
}

func (e *ContainerRuntimeError) Error() string {
	return fmt.Sprintf("%s failed for container %q: %v", e.Operation, e.Container, e.Cause)
}

func (e *ContainerRuntimeError) Unwrap() error { return e.Cause }

func NewContainerRuntimeError(operation, container string, cause error) *ContainerRuntimeError {
	return &ContainerRuntimeError{Operation: operation, Container: container, Cause: cause}
}

func IsContainerRuntime(err error) bool {
	var e *ContainerRuntimeError
	return errors.As(err, &e)
}

// TransportError reports a registry/control-plane transport failure,
// retried with exponential backoff up to a small cap; final failure
// surfaces.
type TransportError struct {
	Operation string
	Cause     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Operation, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

func NewTransportError(operation string, cause error) *TransportError {
	return &TransportError{Operation: operation, Cause: cause}
}

func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// CancelledError reports an observed cancellation. The aggregate records
// Failed(reason=cancelled).
type CancelledError struct {
	Operation string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s cancelled", e.Operation)
}

func NewCancelledError(operation string) *CancelledError {
	return &CancelledError{Operation: operation}
}

func IsCancelled(err error) bool {
	var e *CancelledError
	return errors.As(err, &e)
}

// FatalError reports an unexpected invariant break (e.g. a plan cycle
// surviving past validation). The workflow aborts with no partial
// aggregate persisted beyond the last checkpoint.
type FatalError struct {
	Message string
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Message, e.Cause)
	}
	return "fatal: " + e.Message
}

func (e *FatalError) Unwrap() error { return e.Cause }

func NewFatalError(message string, cause error) *FatalError {
	return &FatalError{Message: message, Cause: cause}
}

func IsFatal(err error) bool {
	var e *FatalError
	return errors.As(err, &e)
}

// CycleError reports a dependency cycle detected by the planner or the
// include resolver.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %v", e.Path)
}

func NewCycleError(path []string) *CycleError {
	return &CycleError{Path: append([]string(nil), path...)}
}

func IsCycle(err error) bool {
	var e *CycleError
	return errors.As(err, &e)
}
