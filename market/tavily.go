package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const DefaultTavilyBaseURL = "https://api.tavily.com"

// TavilyConfig configures a TavilyProvider.
type TavilyConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
}

// TavilyProvider is a NewsProvider backed by the Tavily search API.
type TavilyProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewTavilyProvider creates a provider. A nil client uses one with a 30s
// timeout.
func NewTavilyProvider(cfg TavilyConfig, client *http.Client) *TavilyProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTavilyBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &TavilyProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// News searches for recent market news about ticker.
func (p *TavilyProvider) News(ctx context.Context, ticker string, limit int) ([]Article, error) {
	if limit <= 0 {
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, wrap(ticker, fmt.Errorf("rate limit wait: %w", err))
	}

	payload, err := json.Marshal(map[string]any{
		"query":       fmt.Sprintf("latest market news and financial sentiment for %s today", ticker),
		"max_results": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, &FetchError{Kind: KindMalformed, Ticker: ticker, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrap(ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrap(ticker, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: KindUnavailable, Ticker: ticker, Err: fmt.Errorf("search service returned %d", resp.StatusCode)}
	}

	if !gjson.ValidBytes(body) {
		return nil, &FetchError{Kind: KindMalformed, Ticker: ticker, Err: fmt.Errorf("response is not valid JSON")}
	}

	var articles []Article
	gjson.GetBytes(body, "results").ForEach(func(_, r gjson.Result) bool {
		articles = append(articles, Article{
			Title:   r.Get("title").String(),
			Snippet: r.Get("content").String(),
			URL:     r.Get("url").String(),
		})
		return len(articles) < limit
	})

	return articles, nil
}
