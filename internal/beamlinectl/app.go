package beamlinectl

import (
	"io"
	"os"

	"github.com/beamline-project/beamline/internal/common/natsutil"
	"github.com/beamline-project/beamline/pkg/client"
)

// App ties together the connection parameters and the output stream of one
// CLI invocation. Commands construct it, fill Params from flags and call one
// of the verb methods.
type App struct {
	Params *Params
	Out    io.Writer
}

// Params groups the parameters of the verb methods below.
type Params struct {
	// Servers are the NATS endpoints to reach the primary server through.
	Servers []string

	// Details tunes the protocol client; zero values use its defaults.
	Details client.ConnectionDetails
}

func New() *App {
	return &App{
		Params: &Params{},
		Out:    os.Stdout,
	}
}

// withClient runs an action against a freshly connected protocol client. CLI
// invocations are one-shot, so connections are not reused.
func (a *App) withClient(action func(cl *client.Client) error) error {
	conn, err := natsutil.Connect(a.Params.Servers, "beamlinectl")
	if err != nil {
		return err
	}
	defer conn.Close()
	return action(client.New(conn, a.Params.Details))
}
