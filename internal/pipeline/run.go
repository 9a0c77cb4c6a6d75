package pipeline

import (
	"context"
	"iter"

	"github.com/vasd85/voxenote/internal/collect"
)

// Run executes the full sequence: collect from the planned sources, then
// prepare, trim, and process everything in the ingest area. Stages run
// strictly in order; a later stage starts only after the previous one's
// events are fully consumed.
func (o *Orchestrator) Run(ctx context.Context, plans []collect.Plan) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, stage := range []iter.Seq[Event]{
			o.Collect(ctx, plans),
			o.Prepare(ctx),
			o.Trim(ctx),
			o.Process(ctx),
		} {
			for event := range stage {
				if !yield(event) {
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}
