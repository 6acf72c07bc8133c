package progress

import (
	"fmt"

	"github.com/pkg/errors"
)

// SchemaError is raised before any data moves: an object or a required
// field is absent on one side, or a declared external id does not resolve
// to a field even after typo-correction (spec.md §4.1, §7).
type SchemaError struct {
	Object  string
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error: %s: %s", e.Object, e.Message)
	}
	return fmt.Sprintf("schema error: %s.%s: %s", e.Object, e.Field, e.Message)
}

// QueryMalformedError means the SOQL-like query text could not be parsed
// (spec.md §7).
type QueryMalformedError struct {
	Query string
	Cause error
}

func (e *QueryMalformedError) Error() string {
	return fmt.Sprintf("malformed query %q: %v", e.Query, e.Cause)
}

func (e *QueryMalformedError) Unwrap() error { return e.Cause }

// ApiTransportError wraps a single failed HTTP call. The engines and the
// retrieval driver return it as soon as the call fails: the call is not
// retried, and the error is not converted to ApiOperationFailedError.
type ApiTransportError struct {
	Op    string
	Cause error
}

func (e *ApiTransportError) Error() string {
	return errors.Wrapf(e.Cause, "transport error during %s", e.Op).Error()
}

func (e *ApiTransportError) Unwrap() error { return e.Cause }

// NewApiTransportError wraps cause with the operation name that failed,
// using github.com/pkg/errors so the original stack is preserved the way
// go-sfdc wraps its HTTP failures.
func NewApiTransportError(op string, cause error) *ApiTransportError {
	return &ApiTransportError{Op: op, Cause: errors.WithStack(cause)}
}

// ApiOperationFailedError means an engine terminated with FailedOrAborted
// or ProcessError; it is fatal for the task (spec.md §7, §4.5).
type ApiOperationFailedError struct {
	Object    string
	Operation string
	Cause     error
}

func (e *ApiOperationFailedError) Error() string {
	return fmt.Sprintf("%s %s operation failed: %v", e.Object, e.Operation, e.Cause)
}

func (e *ApiOperationFailedError) Unwrap() error { return e.Cause }

// UserAborted is raised when the user refuses to continue past an
// "continue on issues?" prompt (spec.md §5, §7). The core releases
// in-flight engines, flushes reports, and exits non-zero.
type UserAborted struct {
	Reason string
}

func (e *UserAborted) Error() string {
	if e.Reason == "" {
		return "user aborted"
	}
	return "user aborted: " + e.Reason
}

// FilesystemError means report or cache I/O failed (spec.md §7).
type FilesystemError struct {
	Path  string
	Cause error
}

func (e *FilesystemError) Error() string {
	return errors.Wrapf(e.Cause, "filesystem error at %s", e.Path).Error()
}

func (e *FilesystemError) Unwrap() error { return e.Cause }

// PipelineError is the error propagated upward out of Run when any task
// aborts fatally (spec.md §4.5: "propagating a PipelineError upward").
type PipelineError struct {
	Object string
	Cause  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline aborted at object %s: %v", e.Object, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }
