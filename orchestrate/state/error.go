package state

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSchemaViolation matches every *SchemaViolation through errors.Is.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrGraphInvalid wraps structural errors found while building or
	// validating a graph.
	ErrGraphInvalid = errors.New("invalid graph")

	// ErrMaxSteps is returned when a run exceeds GraphConfig.MaxSteps.
	ErrMaxSteps = errors.New("max steps exceeded")

	// ErrStepTimeout is the context cause when GraphConfig.StepTimeout
	// expires. Steps can tell it apart from a cancelled run with
	// StepTimedOut.
	ErrStepTimeout = errors.New("step timeout")
)

// SchemaViolation reports an update that does not fit the schema. It always
// indicates a programming defect in a step, never a data condition.
type SchemaViolation struct {
	Field  string
	Reason string
}

func (e *SchemaViolation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema violation: %s", e.Reason)
	}
	return fmt.Sprintf("schema violation: field %q: %s", e.Field, e.Reason)
}

func (e *SchemaViolation) Is(target error) bool {
	return target == ErrSchemaViolation
}

// ExecutionError captures context when a run aborts:
//   - Step: the step that was running, or about to run
//   - State: the last successfully merged snapshot
//   - Path: every step entered so far, in order
//   - Err: the underlying cause
type ExecutionError struct {
	Step  string
	State State
	Path  []string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at step %s: %v", e.Step, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// StepTimedOut reports whether ctx ended because the per-step deadline
// expired rather than because the run itself was cancelled.
func StepTimedOut(ctx context.Context) bool {
	return ctx.Err() != nil && errors.Is(context.Cause(ctx), ErrStepTimeout)
}
