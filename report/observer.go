package report

import (
	"context"
	"fmt"
	"io"

	"github.com/EsotericMat/TheLonelyTraderDesk/observability"
	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/state"
)

// LoopObserver writes a line to W each time a run sends the report back for
// another analysis pass. The first pass is not announced.
type LoopObserver struct {
	W io.Writer
}

func (o LoopObserver) OnEvent(_ context.Context, event observability.Event) {
	if event.Type != state.EventIterationAdvance {
		return
	}
	n, ok := event.Data["iteration"].(int)
	if !ok || n <= 1 {
		return
	}
	fmt.Fprintln(o.W, Revision(n))
}

// Revision returns the line printed when analysis pass n starts.
func Revision(n int) string {
	return progressStyle.Render(fmt.Sprintf("[Revision: analysis pass %d]", n))
}
