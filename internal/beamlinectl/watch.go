package beamlinectl

import (
	"context"
	"fmt"

	"github.com/beamline-project/beamline/pkg/api"
	"github.com/beamline-project/beamline/pkg/client"
)

// Watch prints server notifications, and optionally worker completion
// records, until the context is cancelled.
func (a *App) Watch(ctx context.Context, includeCompletions bool) error {
	return a.withClient(func(cl *client.Client) error {
		lines := make(chan string, 256)
		forward := func(line string) {
			select {
			case lines <- line:
			case <-ctx.Done():
			}
		}

		notifySub, err := cl.SubscribeNotifications(forward)
		if err != nil {
			return err
		}
		defer notifySub.Unsubscribe()

		if includeCompletions {
			completionSub, err := cl.SubscribeCompletions(func(completion *api.Completion) {
				forward(fmt.Sprintf("WORKER W%d : event %d part %d/%d done in %dms (%s, %d particles)",
					completion.WorkerID, completion.EventID, completion.Part, completion.NParts,
					completion.DurationMs, completion.Engine, completion.NParticles))
			})
			if err != nil {
				return err
			}
			defer completionSub.Unsubscribe()
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case line := <-lines:
				fmt.Fprintln(a.Out, line)
			}
		}
	})
}
