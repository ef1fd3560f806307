// Package market provides the data capabilities the fetch step consumes: a
// DataProvider returning a financial Snapshot for a ticker and a NewsProvider
// returning recent headlines. Failures are classified into a *FetchError so
// callers can decide whether to continue with degraded input.
//
// YahooProvider reads the Yahoo Finance quoteSummary endpoint and
// TavilyProvider the Tavily search API. Both throttle outgoing requests with a
// token bucket shared by every run using the provider.
package market
