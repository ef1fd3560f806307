package market

import "context"

// Snapshot is the financial picture of one ticker. Pointer fields are nil
// when the source did not report the value.
type Snapshot struct {
	Ticker    string
	Price     *float64
	MarketCap *float64
	ForwardPE *float64
	Summary   string

	PriceTarget PriceTarget

	// Change52Week and MarketChange52Week are fractions (0.12 = 12%).
	Change52Week       *float64
	MarketChange52Week *float64

	RiskScore    *float64 // 1-10
	Beta         *float64
	DebtToEquity *float64
}

// PriceTarget is the analyst consensus.
type PriceTarget struct {
	Current *float64
	Mean    *float64
	Median  *float64
	High    *float64
	Low     *float64
}

// RelativePerformance is the 52-week change minus the benchmark's, in
// percentage points.
func (s Snapshot) RelativePerformance() *float64 {
	if s.Change52Week == nil || s.MarketChange52Week == nil {
		return nil
	}
	v := (*s.Change52Week - *s.MarketChange52Week) * 100
	return &v
}

// Article is one news search result.
type Article struct {
	Title   string
	Snippet string
	URL     string
}

// DataProvider returns a Snapshot or a *FetchError.
type DataProvider interface {
	Snapshot(ctx context.Context, ticker string) (Snapshot, error)
}

// NewsProvider returns at most limit recent articles for ticker.
type NewsProvider interface {
	News(ctx context.Context, ticker string, limit int) ([]Article, error)
}

// NoNews is a NewsProvider that never returns articles. It stands in when no
// search API key is configured.
type NoNews struct{}

func (NoNews) News(context.Context, string, int) ([]Article, error) {
	return nil, nil
}
