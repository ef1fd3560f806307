package desk

import "github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"

// State fields.
const (
	FieldTicker            = "ticker"
	FieldFinancialData     = "financial_data"
	FieldDataStatus        = "data_status"
	FieldSentimentAnalysis = "sentiment_analysis"
	FieldCriticFeedback    = "critic_feedback"
	FieldReport            = "report"
	FieldMessages          = "messages"
	FieldIterations        = "iterations"
)

// StatusOK is the data_status of a successful fetch. Any other value is the
// market.ErrorKind of the failure.
const StatusOK = "ok"

// NewSchema declares the pipeline state. messages is append-only; every other
// field is overwritten by the step that produces it.
func NewSchema() (*state.Schema, error) {
	return state.NewSchema(
		state.Field{Name: FieldTicker, Kind: state.KindString},
		state.Field{Name: FieldFinancialData, Kind: state.KindString},
		state.Field{Name: FieldDataStatus, Kind: state.KindString},
		state.Field{Name: FieldSentimentAnalysis, Kind: state.KindString},
		state.Field{Name: FieldCriticFeedback, Kind: state.KindString},
		state.Field{Name: FieldReport, Kind: state.KindString},
		state.Field{Name: FieldMessages, Kind: state.KindStrings, Policy: state.PolicyAppend},
		state.Field{Name: FieldIterations, Kind: state.KindInt},
	)
}
