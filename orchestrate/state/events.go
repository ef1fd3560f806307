package state

import "github.com/EsotericMat/TheLonelyTraderDesk/observability"

const (
	// Graph execution
	EventGraphStart     observability.EventType = "graph.start"
	EventGraphComplete  observability.EventType = "graph.complete"
	EventGraphError     observability.EventType = "graph.error"
	EventStepStart      observability.EventType = "step.start"
	EventStepComplete   observability.EventType = "step.complete"
	EventStateMerge     observability.EventType = "state.merge"
	EventRouteSelect    observability.EventType = "route.select"
	EventEdgeTransition observability.EventType = "edge.transition"
	EventCycleDetected  observability.EventType = "cycle.detected"

	// Loop bounding
	EventIterationAdvance observability.EventType = "iteration.advance"
)
