package desk

import (
	"strings"

	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"
)

const (
	DefaultMaxIterations  = 3
	DefaultApprovalMarker = "APPROVE"
)

// Router decides whether the Critic's verdict ends the run.
//
// The iteration cap is checked first and wins regardless of feedback. Below
// the cap, any case-insensitive occurrence of the approval marker ends the
// run, so "I approve this" counts. Empty feedback refines.
type Router struct {
	MaxIterations  int
	ApprovalMarker string
}

func (r Router) Route(s state.State) state.Route {
	if r.Capped(s.Int(FieldIterations)) {
		return state.RouteEnd
	}
	if r.Approved(s.String(FieldCriticFeedback)) {
		return state.RouteEnd
	}
	return state.RouteRefine
}

// Capped reports whether iterations has reached the cap.
func (r Router) Capped(iterations int) bool {
	return iterations >= r.MaxIterations
}

// Approved reports whether feedback contains the approval marker.
func (r Router) Approved(feedback string) bool {
	marker := r.ApprovalMarker
	if marker == "" {
		marker = DefaultApprovalMarker
	}
	return strings.Contains(strings.ToUpper(feedback), strings.ToUpper(marker))
}
