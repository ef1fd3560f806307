package state

import (
	"fmt"
	"time"

	"github.com/EsotericMat/TheLonelyTraderDesk/observability"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/config"
)

// Graph is a fixed topology of named steps: one entry point, unconditional
// edges, and exactly one conditional edge whose targets cover every Route.
//
// The refine target of the conditional edge is the loop head. Each time the
// executor enters the loop head it advances the configured iteration field
// before invoking the step, so a Router that compares that field against a
// cap bounds the loop without any step's cooperation.
//
//	graph, err := state.NewGraph(config.DefaultGraphConfig("desk"), schema)
//	graph.AddStep("Fetcher", fetch)
//	graph.AddStep("Analyst", analyze)
//	graph.AddStep("Critic", critique)
//	graph.AddEdge("Fetcher", "Analyst")
//	graph.AddEdge("Analyst", "Critic")
//	graph.AddConditionalEdge("Critic", router, map[state.Route]string{
//	    state.RouteEnd:    state.End,
//	    state.RouteRefine: "Analyst",
//	})
//	graph.SetEntryPoint("Fetcher")
//	final, err := graph.Execute(ctx, initial, nil)
//
// A Graph is safe for concurrent Execute calls once built.
type Graph struct {
	name           string
	schema         *Schema
	steps          map[string]Step
	order          []string
	edges          map[string]string
	conditional    *conditionalEdge
	entryPoint     string
	maxSteps       int
	stepTimeout    time.Duration
	iterationField string
	observer       observability.Observer
}

// Option customizes a Graph at construction.
type Option func(*Graph)

// WithObserver overrides the observer named in the config.
func WithObserver(observer observability.Observer) Option {
	return func(g *Graph) {
		g.observer = observer
	}
}

// NewGraph creates an empty graph over schema.
//
// The observer is resolved from the observability registry by cfg.Observer
// unless WithObserver supplies one. When cfg.IterationField is set it must
// name a KindInt field with the overwrite policy.
func NewGraph(cfg config.GraphConfig, schema *Schema, opts ...Option) (*Graph, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema cannot be nil", ErrGraphInvalid)
	}

	if cfg.MaxSteps <= 0 {
		return nil, fmt.Errorf("%w: max steps must be positive, got %d", ErrGraphInvalid, cfg.MaxSteps)
	}

	if cfg.IterationField != "" {
		f, ok := schema.Field(cfg.IterationField)
		if !ok {
			return nil, fmt.Errorf("%w: iteration field %s is not declared", ErrGraphInvalid, cfg.IterationField)
		}
		if f.Kind != KindInt || f.Policy != PolicyOverwrite {
			return nil, fmt.Errorf("%w: iteration field %s must be an overwrite %s", ErrGraphInvalid, f.Name, KindInt)
		}
	}

	g := &Graph{
		name:           cfg.Name,
		schema:         schema,
		steps:          make(map[string]Step),
		edges:          make(map[string]string),
		maxSteps:       cfg.MaxSteps,
		stepTimeout:    cfg.StepTimeout,
		iterationField: cfg.IterationField,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.observer == nil && cfg.Observer != "" {
		observer, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		g.observer = observer
	}
	g.observer = observability.OrNoOp(g.observer)

	return g, nil
}

// Name returns the graph identifier used in events.
func (g *Graph) Name() string {
	return g.name
}

// Schema returns the schema states must be created with.
func (g *Graph) Schema() *Schema {
	return g.schema
}

// AddStep registers a step under a unique name.
func (g *Graph) AddStep(name string, step Step) error {
	if name == "" {
		return fmt.Errorf("%w: step name cannot be empty", ErrGraphInvalid)
	}

	if name == End {
		return fmt.Errorf("%w: step name %s is reserved", ErrGraphInvalid, End)
	}

	if step == nil {
		return fmt.Errorf("%w: step %s cannot be nil", ErrGraphInvalid, name)
	}

	if _, exists := g.steps[name]; exists {
		return fmt.Errorf("%w: step %s already exists", ErrGraphInvalid, name)
	}

	g.steps[name] = step
	g.order = append(g.order, name)
	return nil
}

// AddEdge creates an unconditional transition. to may be End.
func (g *Graph) AddEdge(from, to string) error {
	if err := g.checkSource(from); err != nil {
		return err
	}

	if err := g.checkTarget(to); err != nil {
		return err
	}

	g.edges[from] = to
	return nil
}

// AddConditionalEdge installs the graph's decision point. targets must map
// every Route to a declared step or End.
func (g *Graph) AddConditionalEdge(from string, router Router, targets map[Route]string) error {
	if g.conditional != nil {
		return fmt.Errorf("%w: conditional edge already set on step %s", ErrGraphInvalid, g.conditional.from)
	}

	if err := g.checkSource(from); err != nil {
		return err
	}

	if router == nil {
		return fmt.Errorf("%w: router cannot be nil", ErrGraphInvalid)
	}

	if len(targets) != len(Routes()) {
		return fmt.Errorf("%w: conditional edge must map exactly %v, got %d targets", ErrGraphInvalid, Routes(), len(targets))
	}

	copied := make(map[Route]string, len(targets))
	for _, r := range Routes() {
		to, ok := targets[r]
		if !ok {
			return fmt.Errorf("%w: conditional edge has no target for route %s", ErrGraphInvalid, r)
		}
		if err := g.checkTarget(to); err != nil {
			return err
		}
		copied[r] = to
	}

	g.conditional = &conditionalEdge{from: from, router: router, targets: copied}
	return nil
}

// SetEntryPoint defines the first step of every run.
func (g *Graph) SetEntryPoint(step string) error {
	if step == "" {
		return fmt.Errorf("%w: entry point cannot be empty", ErrGraphInvalid)
	}

	if g.entryPoint != "" {
		return fmt.Errorf("%w: entry point already set to %s", ErrGraphInvalid, g.entryPoint)
	}

	if _, exists := g.steps[step]; !exists {
		return fmt.Errorf("%w: entry point step %s does not exist", ErrGraphInvalid, step)
	}

	g.entryPoint = step
	return nil
}

// Validate checks the finished topology:
//   - at least one step and an entry point exist
//   - exactly one conditional edge exists
//   - every step has exactly one outgoing edge
//
// Execute calls it before every run.
func (g *Graph) Validate() error {
	if len(g.steps) == 0 {
		return fmt.Errorf("%w: graph has no steps", ErrGraphInvalid)
	}

	if g.entryPoint == "" {
		return fmt.Errorf("%w: entry point not set", ErrGraphInvalid)
	}

	if g.conditional == nil {
		return fmt.Errorf("%w: no conditional edge set", ErrGraphInvalid)
	}

	for _, name := range g.order {
		if _, fixed := g.edges[name]; !fixed && g.conditional.from != name {
			return fmt.Errorf("%w: step %s has no outgoing edge", ErrGraphInvalid, name)
		}
	}

	return nil
}

// loopHead is the step the refine branch returns to, or "" when the refine
// branch ends the run.
func (g *Graph) loopHead() string {
	if g.conditional == nil {
		return ""
	}
	if to := g.conditional.targets[RouteRefine]; to != End {
		return to
	}
	return ""
}

func (g *Graph) checkSource(from string) error {
	if from == "" {
		return fmt.Errorf("%w: from step cannot be empty", ErrGraphInvalid)
	}

	if _, exists := g.steps[from]; !exists {
		return fmt.Errorf("%w: from step %s does not exist", ErrGraphInvalid, from)
	}

	if _, exists := g.edges[from]; exists {
		return fmt.Errorf("%w: step %s already has an outgoing edge", ErrGraphInvalid, from)
	}

	if g.conditional != nil && g.conditional.from == from {
		return fmt.Errorf("%w: step %s already has a conditional edge", ErrGraphInvalid, from)
	}

	return nil
}

func (g *Graph) checkTarget(to string) error {
	if to == "" {
		return fmt.Errorf("%w: to step cannot be empty", ErrGraphInvalid)
	}

	if to == End {
		return nil
	}

	if _, exists := g.steps[to]; !exists {
		return fmt.Errorf("%w: to step %s does not exist", ErrGraphInvalid, to)
	}

	return nil
}
