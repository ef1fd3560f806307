// Package desk is the trader desk pipeline: Fetcher gathers market data,
// Analyst writes a report on it, and Critic reviews the report. The Critic's
// verdict either ends the run or sends the report back to the Analyst, at most
// MaxIterations times in total.
//
//	wf, err := desk.New(desk.Deps{Data: yahoo, News: tavily, Model: model}, desk.DefaultConfig())
//	result, err := wf.Run(ctx, "AAPL", nil)
//
// A Workflow holds no per-run state; several tickers may run concurrently on
// one Workflow.
package desk
