package beamlinectl

import (
	"fmt"

	"github.com/beamline-project/beamline/pkg/client"
)

// Stop asks the server to shut down. Honoured in any state.
func (a *App) Stop() error {
	return a.withClient(func(cl *client.Client) error {
		if err := cl.SendStop(); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "Stop requested")
		return nil
	})
}
