package beamlinectl

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/beamline-project/beamline/pkg/api"
	"github.com/beamline-project/beamline/pkg/client"
)

// Reconfigure sends a reconfiguration command. The server only applies it
// while idle and reports the outcome on the notification channel.
func (a *App) Reconfigure(request *api.ReconfigRequest) error {
	if request.Stop {
		return errors.New("use the stop command to stop the server")
	}
	command := request.Command()
	if command == "" {
		return errors.New("nothing to reconfigure, give at least one override")
	}
	return a.withClient(func(cl *client.Client) error {
		if err := cl.SendReconfigure(request); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Reconfiguration sent: %s\n", command)
		return nil
	})
}
