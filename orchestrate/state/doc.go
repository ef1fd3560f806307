// Package state is the workflow engine: a schema-checked immutable state
// record, steps that return partial updates, a graph with one decision edge,
// and an executor that runs the graph sequentially to completion.
//
// # Schema and Merge
//
// Every field is declared up front with a kind and a merge policy:
//
//	schema, err := state.NewSchema(
//	    state.Field{Name: "ticker", Kind: state.KindString},
//	    state.Field{Name: "messages", Kind: state.KindStrings, Policy: state.PolicyAppend},
//	    state.Field{Name: "iterations", Kind: state.KindInt},
//	)
//	s, err := state.New(schema, state.Update{"ticker": "AAPL"})
//	s, err = state.Merge(s, state.Update{"messages": []string{"fetched"}})
//
// Merge is pure. Overwrite fields are replaced, append fields are
// concatenated in order, and an undeclared field fails with
// *SchemaViolation instead of being dropped.
//
// # Steps and Failure Policies
//
// A Step returns an Update or an error. An error aborts the run with an
// *ExecutionError naming the step. Steps that can tolerate a failed external
// call record it in their update and let the run continue.
//
// # Routing and Loop Bounding
//
// The graph's single conditional edge asks a Router for a Route (RouteEnd or
// RouteRefine). The refine target is the loop head; the executor increments
// the configured iteration field on every entry to it, before the step runs.
// Steps may not write that field. A Router comparing the field against a cap
// therefore bounds the loop by construction. GraphConfig.MaxSteps is a second
// guard on the total number of step invocations.
//
// # Observability
//
// The executor emits graph, step, merge, route and iteration events through an
// observability.Observer, and calls an optional ProgressFunc after each merge.
// Neither influences control flow.
package state
