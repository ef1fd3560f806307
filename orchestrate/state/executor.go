package state

import (
	"context"
	"fmt"

	"github.com/EsotericMat/TheLonelyTraderDesk/observability"
)

// Execute drives one run from the entry point to End.
//
// Each pass:
//  1. Check ctx and the MaxSteps guard
//  2. Advance the iteration field when entering the loop head
//  3. Invoke the step (under StepTimeout when configured)
//  4. Merge its update and notify progress
//  5. Follow the fixed edge, or ask the Router at the decision edge
//
// Steps run strictly one after another. On failure the returned
// *ExecutionError carries the failing step, the last merged snapshot and the
// path taken; the returned State is that same snapshot.
func (g *Graph) Execute(ctx context.Context, initial State, progress ProgressFunc) (State, error) {
	if err := g.Validate(); err != nil {
		return initial, fmt.Errorf("graph validation failed: %w", err)
	}

	if initial.schema != g.schema {
		return initial, fmt.Errorf("%w: state was not created with the graph schema", ErrGraphInvalid)
	}

	g.emit(ctx, EventGraphStart, observability.LevelInfo, map[string]any{
		"entry_point": g.entryPoint,
		"run_id":      initial.RunID,
		"max_steps":   g.maxSteps,
	})

	loopHead := g.loopHead()
	current := g.entryPoint
	state := initial
	steps := 0
	visited := make(map[string]int)
	path := make([]string, 0, len(g.steps))

	fail := func(err error) (State, error) {
		g.emit(ctx, EventGraphError, observability.LevelError, map[string]any{
			"step":   current,
			"run_id": state.RunID,
			"error":  err.Error(),
		})
		return state, &ExecutionError{
			Step:  current,
			State: state,
			Path:  append([]string(nil), path...),
			Err:   err,
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("execution cancelled: %w", err))
		}

		steps++
		if steps > g.maxSteps {
			return fail(fmt.Errorf("%w (%d)", ErrMaxSteps, g.maxSteps))
		}

		visited[current]++
		path = append(path, current)

		if visited[current] > 1 {
			g.emit(ctx, EventCycleDetected, observability.LevelWarning, map[string]any{
				"step":        current,
				"visit_count": visited[current],
				"path_length": len(path),
			})
		}

		if current == loopHead && g.iterationField != "" {
			next := state.Int(g.iterationField) + 1
			advanced, err := Merge(state, Update{g.iterationField: next})
			if err != nil {
				return fail(err)
			}
			state = advanced

			g.emit(ctx, EventIterationAdvance, observability.LevelVerbose, map[string]any{
				"step":      current,
				"iteration": next,
			})
		}

		g.emit(ctx, EventStepStart, observability.LevelVerbose, map[string]any{
			"step":       current,
			"step_count": steps,
		})

		update, err := g.invoke(ctx, current, state)

		g.emit(ctx, EventStepComplete, observability.LevelVerbose, map[string]any{
			"step":  current,
			"error": err != nil,
		})

		if err != nil {
			return fail(fmt.Errorf("step execution failed: %w", err))
		}

		if _, owned := update[g.iterationField]; owned && g.iterationField != "" {
			return fail(&SchemaViolation{Field: g.iterationField, Reason: "field is advanced by the executor"})
		}

		merged, err := Merge(state, update)
		if err != nil {
			return fail(err)
		}
		state = merged

		g.emit(ctx, EventStateMerge, observability.LevelVerbose, map[string]any{
			"step": current,
			"keys": update.Keys(),
		})

		if progress != nil {
			progress(current, update.Clone())
		}

		next, err := g.next(ctx, current, state)
		if err != nil {
			return fail(err)
		}

		g.emit(ctx, EventEdgeTransition, observability.LevelVerbose, map[string]any{
			"from": current,
			"to":   next,
		})

		if next == End {
			g.emit(ctx, EventGraphComplete, observability.LevelInfo, map[string]any{
				"exit_step":  current,
				"run_id":     state.RunID,
				"steps":      steps,
				"path":       append([]string(nil), path...),
				"iterations": state.Int(g.iterationField),
			})
			return state, nil
		}

		current = next
	}
}

// invoke runs one step under the configured per-step deadline.
func (g *Graph) invoke(ctx context.Context, name string, state State) (Update, error) {
	if g.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, g.stepTimeout, ErrStepTimeout)
		defer cancel()
	}

	return g.steps[name].Execute(ctx, state)
}

// next resolves the successor of current.
func (g *Graph) next(ctx context.Context, current string, state State) (string, error) {
	if to, ok := g.edges[current]; ok {
		return to, nil
	}

	if g.conditional == nil || g.conditional.from != current {
		return "", fmt.Errorf("%w: step %s has no outgoing edge", ErrGraphInvalid, current)
	}

	route := g.conditional.router.Route(state)

	var to string
	switch route {
	case RouteEnd:
		to = g.conditional.targets[RouteEnd]
	case RouteRefine:
		to = g.conditional.targets[RouteRefine]
	default:
		return "", fmt.Errorf("router returned invalid %s", route)
	}

	g.emit(ctx, EventRouteSelect, observability.LevelInfo, map[string]any{
		"step":  current,
		"route": route.String(),
		"to":    to,
	})

	return to, nil
}

func (g *Graph) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	g.observer.OnEvent(ctx, observability.NewEvent(typ, level, g.name, data))
}
