package state

import "fmt"

// End is the terminal target. Reaching it completes the run.
const End = "__end__"

// Route is the branch label a Router selects at the decision edge. The set is
// closed; the executor matches it exhaustively.
type Route int

const (
	RouteEnd Route = iota + 1
	RouteRefine
)

// Routes lists every valid label. A conditional edge must map each of them.
func Routes() []Route {
	return []Route{RouteEnd, RouteRefine}
}

func (r Route) Valid() bool {
	return r == RouteEnd || r == RouteRefine
}

func (r Route) String() string {
	switch r {
	case RouteEnd:
		return "end"
	case RouteRefine:
		return "refine"
	default:
		return fmt.Sprintf("route(%d)", int(r))
	}
}

// Router selects the branch at the decision edge. It must be a pure function
// of the snapshot.
type Router interface {
	Route(state State) Route
}

// RouterFunc adapts a function to Router.
type RouterFunc func(state State) Route

func (f RouterFunc) Route(state State) Route {
	return f(state)
}

// conditionalEdge is the graph's single decision point.
type conditionalEdge struct {
	from    string
	router  Router
	targets map[Route]string
}
