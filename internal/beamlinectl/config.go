package beamlinectl

import (
	"context"

	"gopkg.in/yaml.v2"

	"github.com/beamline-project/beamline/pkg/client"
)

// Config fetches the effective run configuration of the server and prints it
// as YAML, ready to be edited and fed back via reconfigure --config-file.
func (a *App) Config() error {
	return a.withClient(func(cl *client.Client) error {
		config, err := cl.RequestRunConfig(context.Background())
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(config)
		if err != nil {
			return err
		}
		_, err = a.Out.Write(data)
		return err
	})
}
