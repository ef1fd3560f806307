package report

import (
	"fmt"
	"time"

	"github.com/EsotericMat/TheLonelyTraderDesk/desk"
)

const fileTimeLayout = "20060102_150405"

// Document is the persisted form of a run.
type Document struct {
	RunID          string `json:"run_id"`
	Ticker         string `json:"ticker"`
	Analysis       string `json:"analysis"`
	CriticFeedback string `json:"critic_feedback"`
	Timestamp      string `json:"timestamp"`
	Iterations     int    `json:"iterations"`
}

// FromResult builds a Document stamped with the run's completion time.
func FromResult(r *desk.Result) Document {
	at := r.CompletedAt
	if at.IsZero() {
		at = time.Now()
	}
	return Document{
		RunID:          r.RunID,
		Ticker:         r.Ticker,
		Analysis:       r.Analysis,
		CriticFeedback: r.Feedback,
		Timestamp:      at.Format(time.RFC3339),
		Iterations:     r.Iterations,
	}
}

// FileName returns analysis_<TICKER>_<YYYYMMDD_HHMMSS>.json for the document.
// An unparsable timestamp falls back to the current time.
func (d Document) FileName() string {
	at, err := time.Parse(time.RFC3339, d.Timestamp)
	if err != nil {
		at = time.Now()
	}
	return fmt.Sprintf("analysis_%s_%s.json", d.Ticker, at.Format(fileTimeLayout))
}
