package market

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	noData       = "No data"
	summaryLimit = 500
	noSummary    = "No summary available."
	newsIndent   = "    "
)

var printer = message.NewPrinter(language.English)

// Render formats a snapshot and its news as the plain-text block handed to
// the analyst. Missing values read "No data".
func Render(s Snapshot, news []Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Stock: %s\n", s.Ticker)
	fmt.Fprintf(&b, "Current Price: %s\n", money(s.Price))
	fmt.Fprintf(&b, "Market Cap: %s\n", marketCap(s.MarketCap))
	fmt.Fprintf(&b, "Forward P/E Ratio: %s\n", number(s.ForwardPE))
	fmt.Fprintf(&b, "Business Summary: %s\n", summary(s.Summary))
	fmt.Fprintf(&b, "Analysts price target: %s\n", s.PriceTarget.String())
	fmt.Fprintf(&b, "52 Weeks change: %s\n", percent(s.Change52Week))
	fmt.Fprintf(&b, "52 weeks Market change: %s\n", percent(s.MarketChange52Week))
	fmt.Fprintf(&b, "Relative performance: %s\n", points(s.RelativePerformance()))
	b.WriteString("Risk data:\n")
	fmt.Fprintf(&b, "%sRisk score: %s/10\n", newsIndent, number(s.RiskScore))
	fmt.Fprintf(&b, "%sVolatility score: %s\n", newsIndent, number(s.Beta))
	fmt.Fprintf(&b, "%sDebt to Equity: %s\n", newsIndent, number(s.DebtToEquity))
	b.WriteString("Latest news:\n")
	b.WriteString(RenderNews(news))

	return b.String()
}

// RenderNews formats articles as indented Title/Snippet pairs.
func RenderNews(news []Article) string {
	if len(news) == 0 {
		return newsIndent + "No recent news.\n"
	}

	var b strings.Builder
	for _, a := range news {
		fmt.Fprintf(&b, "%sTitle: %s\n", newsIndent, a.Title)
		fmt.Fprintf(&b, "%sSnippet: %s\n\n", newsIndent, a.Snippet)
	}
	return b.String()
}

func (t PriceTarget) String() string {
	if t.Mean == nil && t.High == nil && t.Low == nil && t.Median == nil {
		return noData
	}
	return fmt.Sprintf("current=%s mean=%s median=%s high=%s low=%s",
		number(t.Current), number(t.Mean), number(t.Median), number(t.High), number(t.Low))
}

func summary(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return noSummary
	}
	if r := []rune(s); len(r) > summaryLimit {
		return string(r[:summaryLimit])
	}
	return s
}

func number(v *float64) string {
	if v == nil {
		return noData
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func money(v *float64) string {
	if v == nil {
		return noData
	}
	return "$" + number(v)
}

func marketCap(v *float64) string {
	if v == nil {
		return noData
	}
	return printer.Sprintf("$%d", int64(*v))
}

// percent renders a fraction as a percentage.
func percent(v *float64) string {
	if v == nil {
		return noData
	}
	return strconv.FormatFloat(*v*100, 'f', 2, 64) + "%"
}

func points(v *float64) string {
	if v == nil {
		return noData
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
