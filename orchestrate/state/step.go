package state

import "context"

// Step is one unit of work in a graph. It reads the current snapshot and
// returns the fields it wants changed. A returned error aborts the run; steps
// that prefer to continue with degraded input report the problem in their
// update instead.
//
// A step is built once per workflow and may be invoked many times, including
// from concurrent runs. It must not keep per-run state between invocations.
type Step interface {
	Execute(ctx context.Context, state State) (Update, error)
}

// StepFunc adapts a function to Step.
type StepFunc func(ctx context.Context, state State) (Update, error)

func (f StepFunc) Execute(ctx context.Context, state State) (Update, error) {
	return f(ctx, state)
}

// ProgressFunc is notified after each step's update has been merged. It sees
// a copy of the update and cannot affect the run.
type ProgressFunc func(step string, update Update)
