package desk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EsotericMat/TheLonelyTraderDesk/llm"
	"github.com/EsotericMat/TheLonelyTraderDesk/market"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"
)

// FetchStep loads the market snapshot and news for the ticker. Provider
// failures do not abort the run: the failure is described in financial_data
// and classified in data_status, and the Analyst works with what it has.
// Only a cancelled run propagates; an expired step deadline is a timeout.
type FetchStep struct {
	Data        market.DataProvider
	News        market.NewsProvider
	Timeout     time.Duration
	NewsResults int
	Logger      *slog.Logger
}

func (f *FetchStep) Execute(ctx context.Context, s state.State) (state.Update, error) {
	ticker := s.String(FieldTicker)

	snapshot, err := f.snapshot(ctx, ticker)
	if err != nil {
		if ctx.Err() != nil && !state.StepTimedOut(ctx) {
			return nil, ctx.Err()
		}
		kind := market.KindOf(err)
		logger(f.Logger).WarnContext(ctx, "market data unavailable", "ticker", ticker, "kind", string(kind), "error", err)
		return state.Update{
			FieldFinancialData: "Error fetching data: " + err.Error(),
			FieldDataStatus:    string(kind),
			FieldMessages:      []string{fmt.Sprintf("Failed to fetch data for %s: %v", ticker, err)},
		}, nil
	}

	news, err := f.news(ctx, ticker)
	if err != nil {
		logger(f.Logger).WarnContext(ctx, "news unavailable", "ticker", ticker, "kind", string(market.KindOf(err)), "error", err)
		news = nil
	}

	return state.Update{
		FieldFinancialData: market.Render(snapshot, news),
		FieldDataStatus:    StatusOK,
		FieldMessages:      []string{fmt.Sprintf("Fetched live data for %s", ticker)},
	}, nil
}

func (f *FetchStep) snapshot(ctx context.Context, ticker string) (market.Snapshot, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()
	return f.Data.Snapshot(ctx, ticker)
}

func (f *FetchStep) news(ctx context.Context, ticker string) ([]market.Article, error) {
	if f.News == nil || f.NewsResults <= 0 {
		return nil, nil
	}
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()
	return f.News.News(ctx, ticker, f.NewsResults)
}

func (f *FetchStep) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.Timeout)
}

// AnalyzeStep asks the model for a report. After the Critic has returned
// feedback it uses the revision prompt, which carries the previous report and
// the feedback. Model failures abort the run.
type AnalyzeStep struct {
	Model   llm.Model
	Prompts Prompts
	Logger  *slog.Logger
}

func (a *AnalyzeStep) Execute(ctx context.Context, s state.State) (state.Update, error) {
	ticker := s.String(FieldTicker)
	data := s.String(FieldFinancialData)

	if status := s.String(FieldDataStatus); status != StatusOK {
		data = fmt.Sprintf("[Live data is unavailable (%s). Base the analysis only on what follows and state the gap.]\n%s", status, data)
	}

	tmpl := a.Prompts.Analyst
	feedback := s.String(FieldCriticFeedback)
	if feedback != "" && s.String(FieldSentimentAnalysis) != "" {
		tmpl = a.Prompts.AnalystRevision
	}

	logger(a.Logger).InfoContext(ctx, "analyst processing", "ticker", ticker, "iteration", s.Int(FieldIterations), "template", tmpl.Name())

	report, err := a.Model.Generate(ctx, tmpl, map[string]any{
		"ticker":             ticker,
		"financial_data":     data,
		"sentiment_analysis": s.String(FieldSentimentAnalysis),
		"critic_feedback":    feedback,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", ticker, err)
	}

	return state.Update{
		FieldSentimentAnalysis: report,
		FieldMessages:          []string{fmt.Sprintf("Analysis completed for %s.", ticker)},
	}, nil
}

// CritiqueStep asks the model to review the current report against the
// reference data. Model failures abort the run.
type CritiqueStep struct {
	Model   llm.Model
	Prompts Prompts
	Logger  *slog.Logger
}

func (c *CritiqueStep) Execute(ctx context.Context, s state.State) (state.Update, error) {
	logger(c.Logger).InfoContext(ctx, "reviewing report", "ticker", s.String(FieldTicker), "iteration", s.Int(FieldIterations))

	feedback, err := c.Model.Generate(ctx, c.Prompts.Critic, map[string]any{
		"financial_data":     s.String(FieldFinancialData),
		"sentiment_analysis": s.String(FieldSentimentAnalysis),
	})
	if err != nil {
		return nil, fmt.Errorf("critique %s: %w", s.String(FieldTicker), err)
	}

	return state.Update{
		FieldCriticFeedback: feedback,
		FieldMessages:       []string{"Reviewing Done"},
	}, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
