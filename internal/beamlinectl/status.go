package beamlinectl

import (
	"fmt"

	"github.com/beamline-project/beamline/pkg/client"
)

// Status prints the lifecycle state of the server.
func (a *App) Status() error {
	return a.withClient(func(cl *client.Client) error {
		state, err := cl.ProbeStatus()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out, state.String())
		return nil
	})
}
