package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/EsotericMat/TheLonelyTraderDesk/config"
	"github.com/EsotericMat/TheLonelyTraderDesk/desk"
	"github.com/EsotericMat/TheLonelyTraderDesk/llm"
	"github.com/EsotericMat/TheLonelyTraderDesk/market"
	"github.com/EsotericMat/TheLonelyTraderDesk/observability"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"
	"github.com/EsotericMat/TheLonelyTraderDesk/report"
)

const (
	defaultTicker  = "AAPL"
	maxConcurrency = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "traderdesk: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, lookup config.LookupFunc, stdout, stderr io.Writer) error {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(stdout, "Usage: traderdesk [TICKER ...]")
		return nil
	}

	cfg, err := config.Load(".env", lookup)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	out := &syncWriter{w: stdout}

	var observer observability.Observer = observability.NewSlogObserver(logger)
	if cfg.Verbose {
		observer = observability.NewMultiObserver(observer, report.LoopObserver{W: out})
	}
	observability.RegisterObserver("slog", observer)

	wf, err := buildWorkflow(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var store *report.FileStore
	if cfg.SaveResults {
		store = report.NewFileStore(cfg.ResultsDir)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrency)

	for _, ticker := range tickers(args) {
		g.Go(func() error {
			if err := analyze(ctx, wf, ticker, cfg.Verbose, store, out); err != nil {
				logger.Error("run failed", "ticker", ticker, "error", err)
				return fmt.Errorf("%s: %w", ticker, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func buildWorkflow(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*desk.Workflow, error) {
	chat, err := llm.NewOpenAIModel(ctx, llm.OpenAIConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	var news market.NewsProvider = market.NoNews{}
	if cfg.News.APIKey != "" {
		news = market.NewTavilyProvider(market.TavilyConfig{APIKey: cfg.News.APIKey}, nil)
	}

	deskCfg := desk.DefaultConfig()
	deskCfg.MaxIterations = cfg.MaxIterations
	deskCfg.FetchTimeout = cfg.FetchTimeout
	deskCfg.NewsResults = cfg.News.MaxResults
	deskCfg.Graph = cfg.Graph

	return desk.New(desk.Deps{
		Data:   market.NewYahooProvider(market.DefaultYahooConfig(), nil),
		News:   news,
		Model:  llm.NewRetryingModel(chat, cfg.LLM.MaxRetries, llm.WithRetryLogger(logger)),
		Logger: logger,
	}, deskCfg)
}

func analyze(ctx context.Context, wf *desk.Workflow, ticker string, verbose bool, store *report.FileStore, out io.Writer) error {
	var progress state.ProgressFunc
	if verbose {
		progress = func(step string, _ state.Update) {
			fmt.Fprintln(out, report.Progress(step))
		}
	}

	result, err := wf.Run(ctx, ticker, progress)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, report.Render(result))

	if store != nil {
		path, err := store.Save(ctx, report.FromResult(result))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Results saved to %s\n", path)
	}
	return nil
}

// tickers returns the upper-cased, de-duplicated arguments, or the default
// ticker when none are given.
func tickers(args []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range args {
		t := strings.ToUpper(strings.TrimSpace(a))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return []string{defaultTicker}
	}
	return out
}

// syncWriter serializes writes from concurrent runs.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
