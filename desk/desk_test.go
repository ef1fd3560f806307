package desk_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EsotericMat/TheLonelyTraderDesk/desk"
	"github.com/EsotericMat/TheLonelyTraderDesk/llm"
	"github.com/EsotericMat/TheLonelyTraderDesk/market"
	"github.com/EsotericMat/TheLonelyTraderDesk/observability"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"
)

type dataStub struct {
	snapshot market.Snapshot
	err      error
}

func (d dataStub) Snapshot(_ context.Context, ticker string) (market.Snapshot, error) {
	if d.err != nil {
		return market.Snapshot{}, d.err
	}
	s := d.snapshot
	s.Ticker = ticker
	return s, nil
}

type newsStub struct {
	articles []market.Article
	err      error
}

func (n newsStub) News(context.Context, string, int) ([]market.Article, error) {
	return n.articles, n.err
}

// modelStub answers by template name and records every call.
type modelStub struct {
	mu       sync.Mutex
	analyst  func(vars map[string]any) (string, error)
	critic   func(call int) (string, error)
	calls    map[string]int
	lastVars map[string]map[string]any
}

func newModelStub() *modelStub {
	return &modelStub{
		analyst:  func(map[string]any) (string, error) { return "REPORT", nil },
		critic:   func(int) (string, error) { return "APPROVE", nil },
		calls:    make(map[string]int),
		lastVars: make(map[string]map[string]any),
	}
}

func (m *modelStub) Generate(_ context.Context, tmpl *llm.Template, vars map[string]any) (string, error) {
	m.mu.Lock()
	m.calls[tmpl.Name()]++
	m.lastVars[tmpl.Name()] = vars
	criticCalls := m.calls["critic"]
	m.mu.Unlock()

	if tmpl.Name() == "critic" {
		return m.critic(criticCalls)
	}
	return m.analyst(vars)
}

func (m *modelStub) count(names ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range names {
		total += m.calls[n]
	}
	return total
}

func (m *modelStub) analystCalls() int { return m.count("analyst", "analyst-revision") }
func (m *modelStub) criticCalls() int  { return m.count("critic") }

func price(v float64) *float64 { return &v }

func fixedSnapshot() market.Snapshot {
	return market.Snapshot{Price: price(100), MarketCap: price(1e9), ForwardPE: price(20)}
}

func newWorkflow(t *testing.T, deps desk.Deps, mutate func(*desk.Config)) (*desk.Workflow, *observability.Recorder) {
	t.Helper()
	cfg := desk.DefaultConfig()
	cfg.Graph.Observer = "noop"
	if mutate != nil {
		mutate(&cfg)
	}
	rec := &observability.Recorder{}
	wf, err := desk.New(deps, cfg, state.WithObserver(rec))
	require.NoError(t, err)
	return wf, rec
}

func TestScenario_FetchFailureContinuesIntoAnalysis(t *testing.T) {
	model := newModelStub()
	wf, _ := newWorkflow(t, desk.Deps{
		Data:  dataStub{err: &market.FetchError{Kind: market.KindNotFound, Ticker: "ZZZZ", Err: errors.New("no quote data")}},
		Model: model,
	}, nil)

	result, err := wf.Run(context.Background(), "ZZZZ", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.FinancialData, "Error fetching data: "), result.FinancialData)
	assert.Equal(t, string(market.KindNotFound), result.DataStatus)
	assert.Equal(t, 1, model.analystCalls())
	assert.Contains(t, result.Messages[0], "Failed to fetch data for ZZZZ")

	vars := model.lastVars["analyst"]
	assert.Contains(t, vars["financial_data"], "Live data is unavailable (not_found)")
}

func TestScenario_ApprovedOnFirstPass(t *testing.T) {
	model := newModelStub()
	wf, rec := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model}, nil)

	result, err := wf.Run(context.Background(), "TEST", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, model.analystCalls())
	assert.Equal(t, 1, model.criticCalls())
	assert.Equal(t, 1, result.Iterations)
	assert.True(t, result.Approved)
	assert.False(t, result.Capped)
	assert.Equal(t, "REPORT", result.Analysis)
	assert.Equal(t, "APPROVE", result.Feedback)
	assert.Equal(t, desk.StatusOK, result.DataStatus)
	assert.Equal(t, []string{desk.StepFetcher, desk.StepAnalyst, desk.StepCritic}, result.Path)
	assert.Equal(t, []string{
		"Fetched live data for TEST",
		"Analysis completed for TEST.",
		"Reviewing Done",
	}, result.Messages)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, rec.OfType(state.EventGraphComplete), 1)
}

func TestScenario_NeverApprovedStopsAtCap(t *testing.T) {
	model := newModelStub()
	model.critic = func(int) (string, error) { return "FEEDBACK: x", nil }
	wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model}, nil)

	result, err := wf.Run(context.Background(), "TEST", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, model.analystCalls())
	assert.Equal(t, 3, model.criticCalls())
	assert.Equal(t, 3, result.Iterations)
	assert.True(t, result.Capped)
	assert.False(t, result.Approved)
	assert.Equal(t, "FEEDBACK: x", result.Feedback)
	assert.Len(t, result.Messages, 1+2*3)
}

func TestScenario_ApprovedOnSecondPass(t *testing.T) {
	model := newModelStub()
	model.critic = func(call int) (string, error) {
		if call == 1 {
			return "FEEDBACK: mention the P/E ratio", nil
		}
		return "Looks good, I approve this report.", nil
	}
	wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model}, nil)

	result, err := wf.Run(context.Background(), "TEST", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Iterations)
	assert.True(t, result.Approved)
	assert.Equal(t, 1, model.count("analyst"))
	assert.Equal(t, 1, model.count("analyst-revision"))

	vars := model.lastVars["analyst-revision"]
	assert.Equal(t, "FEEDBACK: mention the P/E ratio", vars["critic_feedback"])
	assert.Equal(t, "REPORT", vars["sentiment_analysis"])
}

func TestScenario_CapIsConfigurable(t *testing.T) {
	for _, limit := range []int{1, 2, 5} {
		model := newModelStub()
		model.critic = func(int) (string, error) { return "", nil }
		wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model},
			func(c *desk.Config) { c.MaxIterations = limit })

		result, err := wf.Run(context.Background(), "TEST", nil)
		require.NoError(t, err)
		assert.Equal(t, limit, result.Iterations)
		assert.Equal(t, limit, model.criticCalls())
	}
}

func TestScenario_CapAboveDefaultStepGuard(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		maxSteps int
	}{
		{name: "cap past default guard", limit: 60},
		{name: "explicit guard below cap", limit: 3, maxSteps: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newModelStub()
			model.critic = func(int) (string, error) { return "FEEDBACK: x", nil }
			wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model},
				func(c *desk.Config) {
					c.MaxIterations = tt.limit
					c.Graph.MaxSteps = tt.maxSteps
				})

			result, err := wf.Run(context.Background(), "TEST", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.limit, result.Iterations)
			assert.Equal(t, tt.limit, model.criticCalls())
			assert.True(t, result.Capped)
			assert.Len(t, result.Path, 1+2*tt.limit)
		})
	}
}

func TestRun_StepDeadlineDuringFetchDegrades(t *testing.T) {
	model := newModelStub()
	wf, _ := newWorkflow(t, desk.Deps{Data: slowData{}, Model: model}, func(c *desk.Config) {
		c.FetchTimeout = 0
		c.Graph.StepTimeout = 20 * time.Millisecond
	})

	result, err := wf.Run(context.Background(), "TEST", nil)
	require.NoError(t, err)
	assert.Equal(t, string(market.KindTimeout), result.DataStatus)
	assert.True(t, strings.HasPrefix(result.FinancialData, "Error fetching data: "))
	assert.Equal(t, 1, model.analystCalls())
}

func TestRun_ModelFailureAborts(t *testing.T) {
	model := newModelStub()
	model.critic = func(int) (string, error) {
		return "", &llm.ModelError{Kind: llm.KindAuthentication, Err: errors.New("bad key")}
	}
	wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model}, nil)

	result, err := wf.Run(context.Background(), "TEST", nil)
	require.Error(t, err)
	assert.Nil(t, result)

	var execErr *state.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, desk.StepCritic, execErr.Step)

	var me *llm.ModelError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, llm.KindAuthentication, me.Kind)
}

func TestRun_ProgressDoesNotChangeResult(t *testing.T) {
	model := newModelStub()
	model.critic = func(int) (string, error) { return "FEEDBACK: more", nil }
	wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model}, nil)

	var steps []string
	with, err := wf.Run(context.Background(), "TEST", func(step string, _ state.Update) {
		steps = append(steps, step)
	})
	require.NoError(t, err)

	without, err := wf.Run(context.Background(), "TEST", nil)
	require.NoError(t, err)

	assert.Equal(t, with.Path, steps)
	assert.Equal(t, without.Messages, with.Messages)
	assert.Equal(t, without.Iterations, with.Iterations)
	assert.Equal(t, without.Analysis, with.Analysis)
}

func TestRun_NormalizesTicker(t *testing.T) {
	wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: newModelStub()}, nil)

	result, err := wf.Run(context.Background(), "  aapl ", nil)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", result.Ticker)

	_, err = wf.Run(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestRun_ConcurrentTickersIsolated(t *testing.T) {
	model := newModelStub()
	wf, _ := newWorkflow(t, desk.Deps{Data: dataStub{snapshot: fixedSnapshot()}, Model: model}, nil)

	tickers := []string{"AAPL", "MSFT", "NVDA", "TSLA"}
	results := make([]*desk.Result, len(tickers))

	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := wf.Run(context.Background(), ticker, nil)
			assert.NoError(t, err)
			results[i] = r
		}()
	}
	wg.Wait()

	for i, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, tickers[i], r.Ticker)
		assert.Equal(t, "Fetched live data for "+tickers[i], r.Messages[0])
		assert.Len(t, r.Messages, 3)
	}
}

func TestNew_Validation(t *testing.T) {
	model := newModelStub()
	data := dataStub{snapshot: fixedSnapshot()}

	_, err := desk.New(desk.Deps{Model: model}, desk.DefaultConfig())
	assert.Error(t, err)

	_, err = desk.New(desk.Deps{Data: data}, desk.DefaultConfig())
	assert.Error(t, err)

	cfg := desk.DefaultConfig()
	cfg.MaxIterations = 0
	_, err = desk.New(desk.Deps{Data: data, Model: model}, cfg)
	assert.Error(t, err)
}
