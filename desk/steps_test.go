package desk_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EsotericMat/TheLonelyTraderDesk/desk"
	"github.com/EsotericMat/TheLonelyTraderDesk/market"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"
)

func deskState(t *testing.T, update state.Update) state.State {
	t.Helper()
	schema, err := desk.NewSchema()
	require.NoError(t, err)
	s, err := state.New(schema, update)
	require.NoError(t, err)
	return s
}

type slowData struct{}

func (slowData) Snapshot(ctx context.Context, ticker string) (market.Snapshot, error) {
	<-ctx.Done()
	return market.Snapshot{}, &market.FetchError{Kind: market.KindTimeout, Ticker: ticker, Err: ctx.Err()}
}

func TestFetchStep(t *testing.T) {
	tests := []struct {
		name        string
		step        *desk.FetchStep
		wantStatus  string
		wantPrefix  string
		wantMessage string
		wantNews    bool
	}{
		{
			name: "snapshot with news",
			step: &desk.FetchStep{
				Data:        dataStub{snapshot: fixedSnapshot()},
				News:        newsStub{articles: []market.Article{{Title: "Beat", Snippet: "Strong"}}},
				NewsResults: 3,
			},
			wantStatus:  desk.StatusOK,
			wantPrefix:  "Stock: AAPL",
			wantMessage: "Fetched live data for AAPL",
			wantNews:    true,
		},
		{
			name: "news failure is absorbed",
			step: &desk.FetchStep{
				Data:        dataStub{snapshot: fixedSnapshot()},
				News:        newsStub{err: errors.New("search down")},
				NewsResults: 3,
			},
			wantStatus:  desk.StatusOK,
			wantPrefix:  "Stock: AAPL",
			wantMessage: "Fetched live data for AAPL",
		},
		{
			name: "provider failure becomes data",
			step: &desk.FetchStep{
				Data: dataStub{err: &market.FetchError{Kind: market.KindUnavailable, Ticker: "AAPL", Err: errors.New("502")}},
			},
			wantStatus:  string(market.KindUnavailable),
			wantPrefix:  "Error fetching data: ",
			wantMessage: "Failed to fetch data for AAPL: ",
		},
		{
			name:        "timeout is classified",
			step:        &desk.FetchStep{Data: slowData{}, Timeout: 10 * time.Millisecond},
			wantStatus:  string(market.KindTimeout),
			wantPrefix:  "Error fetching data: ",
			wantMessage: "Failed to fetch data for AAPL: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := tt.step.Execute(context.Background(), deskState(t, state.Update{desk.FieldTicker: "AAPL"}))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, update[desk.FieldDataStatus])
			assert.Contains(t, update[desk.FieldFinancialData], tt.wantPrefix)
			msgs := update[desk.FieldMessages].([]string)
			require.Len(t, msgs, 1)
			assert.Contains(t, msgs[0], tt.wantMessage)

			if tt.wantNews {
				assert.Contains(t, update[desk.FieldFinancialData], "Title: Beat")
			} else {
				assert.NotContains(t, update[desk.FieldFinancialData], "Title:")
			}
		})
	}
}

func TestFetchStep_CancelledRunPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := &desk.FetchStep{Data: slowData{}}
	_, err := step.Execute(ctx, deskState(t, state.Update{desk.FieldTicker: "AAPL"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchStep_StepDeadlineDegrades(t *testing.T) {
	ctx, cancel := context.WithTimeoutCause(context.Background(), 10*time.Millisecond, state.ErrStepTimeout)
	defer cancel()

	step := &desk.FetchStep{Data: slowData{}}
	update, err := step.Execute(ctx, deskState(t, state.Update{desk.FieldTicker: "AAPL"}))
	require.NoError(t, err)
	assert.Equal(t, string(market.KindTimeout), update[desk.FieldDataStatus])
}

func TestAnalyzeStep_TemplateSelection(t *testing.T) {
	tests := []struct {
		name     string
		state    state.Update
		wantTmpl string
	}{
		{
			name:     "first pass",
			state:    state.Update{desk.FieldTicker: "AAPL", desk.FieldDataStatus: desk.StatusOK},
			wantTmpl: "analyst",
		},
		{
			name: "revision after feedback",
			state: state.Update{
				desk.FieldTicker:            "AAPL",
				desk.FieldDataStatus:        desk.StatusOK,
				desk.FieldSentimentAnalysis: "draft",
				desk.FieldCriticFeedback:    "FEEDBACK: add P/E",
			},
			wantTmpl: "analyst-revision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newModelStub()
			step := &desk.AnalyzeStep{Model: model, Prompts: desk.DefaultPrompts()}

			update, err := step.Execute(context.Background(), deskState(t, tt.state))
			require.NoError(t, err)

			assert.Equal(t, 1, model.count(tt.wantTmpl))
			assert.Equal(t, "REPORT", update[desk.FieldSentimentAnalysis])
			assert.Equal(t, []string{"Analysis completed for AAPL."}, update[desk.FieldMessages])
			assert.NotContains(t, update, desk.FieldIterations)
		})
	}
}

func TestAnalyzeStep_PropagatesModelError(t *testing.T) {
	model := newModelStub()
	boom := errors.New("model down")
	model.analyst = func(map[string]any) (string, error) { return "", boom }

	step := &desk.AnalyzeStep{Model: model, Prompts: desk.DefaultPrompts()}
	_, err := step.Execute(context.Background(), deskState(t, state.Update{desk.FieldTicker: "AAPL"}))
	assert.ErrorIs(t, err, boom)
}

func TestCritiqueStep(t *testing.T) {
	model := newModelStub()
	step := &desk.CritiqueStep{Model: model, Prompts: desk.DefaultPrompts()}

	update, err := step.Execute(context.Background(), deskState(t, state.Update{
		desk.FieldTicker:            "AAPL",
		desk.FieldFinancialData:     "Price: $1",
		desk.FieldSentimentAnalysis: "Solid.",
	}))
	require.NoError(t, err)

	assert.Equal(t, "APPROVE", update[desk.FieldCriticFeedback])
	assert.Equal(t, []string{"Reviewing Done"}, update[desk.FieldMessages])
	assert.Equal(t, "Price: $1", model.lastVars["critic"]["financial_data"])
	assert.Equal(t, "Solid.", model.lastVars["critic"]["sentiment_analysis"])
}

func TestDefaultPrompts_Render(t *testing.T) {
	p := desk.DefaultPrompts()

	msgs, err := p.Critic.Format(context.Background(), map[string]any{
		"financial_data":     "DATA",
		"sentiment_analysis": "REPORT",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "respond with ONLY the word: **APPROVE**")
	assert.Contains(t, msgs[1].Content, "REFERENCE DATA:\nDATA")
	assert.Contains(t, msgs[1].Content, "ANALYST'S REPORT TO REVIEW:\nREPORT")

	msgs, err = p.Analyst.Format(context.Background(), map[string]any{
		"ticker":             "AAPL",
		"financial_data":     "DATA",
		"sentiment_analysis": "",
		"critic_feedback":    "",
	})
	require.NoError(t, err)
	assert.Equal(t, "Here is the data for AAPL: DATA", msgs[1].Content)
}
