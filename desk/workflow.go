package desk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/EsotericMat/TheLonelyTraderDesk/llm"
	"github.com/EsotericMat/TheLonelyTraderDesk/market"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/config"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"
)

// Step names.
const (
	StepFetcher = "Fetcher"
	StepAnalyst = "Analyst"
	StepCritic  = "Critic"
)

// Deps are the capabilities the steps call. News may be nil.
type Deps struct {
	Data   market.DataProvider
	News   market.NewsProvider
	Model  llm.Model
	Logger *slog.Logger
}

// Config tunes the pipeline.
type Config struct {
	MaxIterations  int
	ApprovalMarker string
	FetchTimeout   time.Duration
	NewsResults    int
	Prompts        Prompts
	Graph          config.GraphConfig
}

// DefaultConfig returns a three-pass pipeline with a 15s fetch timeout and
// three news results.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  DefaultMaxIterations,
		ApprovalMarker: DefaultApprovalMarker,
		FetchTimeout:   15 * time.Second,
		NewsResults:    3,
		Prompts:        DefaultPrompts(),
		Graph:          config.DefaultGraphConfig("trader-desk"),
	}
}

// Result is the outcome of one run.
type Result struct {
	RunID         string
	Ticker        string
	FinancialData string
	DataStatus    string
	Analysis      string
	Feedback      string
	Messages      []string
	Iterations    int
	Path          []string

	// Approved is true when the final feedback carries the approval marker.
	// Capped is true when the run ended because the iteration cap was
	// reached; both can hold at once.
	Approved bool
	Capped   bool

	StartedAt   time.Time
	CompletedAt time.Time
}

// Workflow is the built Fetcher -> Analyst -> Critic graph.
type Workflow struct {
	graph  *state.Graph
	router Router
}

// New builds the pipeline graph. opts are passed to state.NewGraph.
func New(deps Deps, cfg Config, opts ...state.Option) (*Workflow, error) {
	if deps.Data == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	if deps.Model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if deps.News == nil {
		deps.News = market.NoNews{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", cfg.MaxIterations)
	}
	if cfg.Prompts.Analyst == nil || cfg.Prompts.AnalystRevision == nil || cfg.Prompts.Critic == nil {
		cfg.Prompts = DefaultPrompts()
	}

	schema, err := NewSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}

	graphCfg := config.DefaultGraphConfig("trader-desk")
	graphCfg.Merge(&cfg.Graph)
	graphCfg.IterationField = FieldIterations
	if need := minSteps(cfg.MaxIterations); graphCfg.MaxSteps < need {
		graphCfg.MaxSteps = need
	}

	graph, err := state.NewGraph(graphCfg, schema, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}

	router := Router{MaxIterations: cfg.MaxIterations, ApprovalMarker: cfg.ApprovalMarker}

	fetch := &FetchStep{
		Data:        deps.Data,
		News:        deps.News,
		Timeout:     cfg.FetchTimeout,
		NewsResults: cfg.NewsResults,
		Logger:      deps.Logger,
	}
	analyze := &AnalyzeStep{Model: deps.Model, Prompts: cfg.Prompts, Logger: deps.Logger}
	critique := &CritiqueStep{Model: deps.Model, Prompts: cfg.Prompts, Logger: deps.Logger}

	for _, build := range []func() error{
		func() error { return graph.AddStep(StepFetcher, fetch) },
		func() error { return graph.AddStep(StepAnalyst, analyze) },
		func() error { return graph.AddStep(StepCritic, critique) },
		func() error { return graph.AddEdge(StepFetcher, StepAnalyst) },
		func() error { return graph.AddEdge(StepAnalyst, StepCritic) },
		func() error {
			return graph.AddConditionalEdge(StepCritic, router, map[state.Route]string{
				state.RouteEnd:    state.End,
				state.RouteRefine: StepAnalyst,
			})
		},
		func() error { return graph.SetEntryPoint(StepFetcher) },
		graph.Validate,
	} {
		if err := build(); err != nil {
			return nil, fmt.Errorf("failed to build workflow: %w", err)
		}
	}

	return &Workflow{graph: graph, router: router}, nil
}

// Run analyzes one ticker. progress, when non-nil, is called after each step
// completes. Errors from the Analyst or Critic abort the run and are returned
// as *state.ExecutionError.
func (w *Workflow) Run(ctx context.Context, ticker string, progress state.ProgressFunc) (*Result, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}

	initial, err := state.New(w.graph.Schema(), state.Update{FieldTicker: ticker})
	if err != nil {
		return nil, err
	}

	var path []string
	track := func(step string, update state.Update) {
		path = append(path, step)
		if progress != nil {
			progress(step, update)
		}
	}

	final, err := w.graph.Execute(ctx, initial, track)
	if err != nil {
		return nil, err
	}

	feedback := final.String(FieldCriticFeedback)
	iterations := final.Int(FieldIterations)

	return &Result{
		RunID:         final.RunID,
		Ticker:        final.String(FieldTicker),
		FinancialData: final.String(FieldFinancialData),
		DataStatus:    final.String(FieldDataStatus),
		Analysis:      final.String(FieldSentimentAnalysis),
		Feedback:      feedback,
		Messages:      final.Strings(FieldMessages),
		Iterations:    iterations,
		Path:          path,
		Approved:      w.router.Approved(feedback),
		Capped:        w.router.Capped(iterations),
		StartedAt:     final.Timestamp,
		CompletedAt:   time.Now(),
	}, nil
}

// minSteps is the longest run the iteration cap allows: the fetch plus one
// analyst and critic pass per iteration.
func minSteps(maxIterations int) int {
	return 1 + 2*maxIterations
}
