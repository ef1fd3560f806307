package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultYahooBaseURL = "https://query2.finance.yahoo.com"

	yahooModules = "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile"
	userAgent    = "Mozilla/5.0 (compatible; traderdesk/1.0)"
)

// YahooConfig configures a YahooProvider.
type YahooConfig struct {
	BaseURL string

	// RequestsPerSecond and Burst size the shared token bucket.
	RequestsPerSecond float64
	Burst             int
}

// DefaultYahooConfig returns the production endpoint throttled to two
// requests per second.
func DefaultYahooConfig() YahooConfig {
	return YahooConfig{
		BaseURL:           DefaultYahooBaseURL,
		RequestsPerSecond: 2,
		Burst:             2,
	}
}

// YahooProvider is a DataProvider backed by the Yahoo Finance quoteSummary
// endpoint. Safe for concurrent use.
type YahooProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewYahooProvider creates a provider. A nil client uses one with a 30s
// timeout; callers bound individual lookups through ctx.
func NewYahooProvider(cfg YahooConfig, client *http.Client) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &YahooProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// Snapshot fetches and parses the quoteSummary modules for ticker.
func (p *YahooProvider) Snapshot(ctx context.Context, ticker string) (Snapshot, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Snapshot{}, wrap(ticker, fmt.Errorf("rate limit wait: %w", err))
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		p.baseURL, url.PathEscape(ticker), url.QueryEscape(yahooModules))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, &FetchError{Kind: KindMalformed, Ticker: ticker, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return Snapshot{}, wrap(ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, wrap(ticker, fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Snapshot{}, &FetchError{Kind: KindNotFound, Ticker: ticker, Err: fmt.Errorf("no quote data for %s", ticker)}
	case resp.StatusCode != http.StatusOK:
		return Snapshot{}, &FetchError{Kind: KindUnavailable, Ticker: ticker, Err: fmt.Errorf("quote service returned %d", resp.StatusCode)}
	}

	return parseQuoteSummary(ticker, body)
}

func parseQuoteSummary(ticker string, body []byte) (Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return Snapshot{}, &FetchError{Kind: KindMalformed, Ticker: ticker, Err: fmt.Errorf("response is not valid JSON")}
	}

	doc := gjson.ParseBytes(body)
	if desc := doc.Get("quoteSummary.error.description"); desc.Exists() && desc.String() != "" {
		return Snapshot{}, &FetchError{Kind: KindNotFound, Ticker: ticker, Err: fmt.Errorf("%s", desc.String())}
	}

	result := doc.Get("quoteSummary.result.0")
	if !result.Exists() {
		return Snapshot{}, &FetchError{Kind: KindNotFound, Ticker: ticker, Err: fmt.Errorf("no quote data for %s", ticker)}
	}

	s := Snapshot{
		Ticker:             ticker,
		Price:              firstNumber(result, "financialData.currentPrice.raw", "price.regularMarketPrice.raw"),
		MarketCap:          firstNumber(result, "price.marketCap.raw", "summaryDetail.marketCap.raw"),
		ForwardPE:          firstNumber(result, "summaryDetail.forwardPE.raw", "defaultKeyStatistics.forwardPE.raw"),
		Summary:            result.Get("assetProfile.longBusinessSummary").String(),
		Change52Week:       firstNumber(result, "defaultKeyStatistics.52WeekChange.raw"),
		MarketChange52Week: firstNumber(result, "defaultKeyStatistics.SandP52WeekChange.raw"),
		RiskScore:          firstNumber(result, "assetProfile.overallRisk"),
		Beta:               firstNumber(result, "summaryDetail.beta.raw", "defaultKeyStatistics.beta.raw"),
		DebtToEquity:       firstNumber(result, "financialData.debtToEquity.raw"),
		PriceTarget: PriceTarget{
			Current: firstNumber(result, "financialData.currentPrice.raw"),
			Mean:    firstNumber(result, "financialData.targetMeanPrice.raw"),
			Median:  firstNumber(result, "financialData.targetMedianPrice.raw"),
			High:    firstNumber(result, "financialData.targetHighPrice.raw"),
			Low:     firstNumber(result, "financialData.targetLowPrice.raw"),
		},
	}

	if s.Price == nil && s.MarketCap == nil {
		return Snapshot{}, &FetchError{Kind: KindMalformed, Ticker: ticker, Err: fmt.Errorf("quote has neither price nor market cap")}
	}

	return s, nil
}

// firstNumber returns the first path holding a number.
func firstNumber(doc gjson.Result, paths ...string) *float64 {
	for _, path := range paths {
		if v := doc.Get(path); v.Type == gjson.Number {
			f := v.Float()
			return &f
		}
	}
	return nil
}
