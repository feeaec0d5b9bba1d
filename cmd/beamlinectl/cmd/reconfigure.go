package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beamline-project/beamline/pkg/api"
)

func init() {
	rootCmd.AddCommand(reconfigureCmd())
}

func reconfigureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconfigure",
		Short: "Reconfigure an idle server for a new run.",
		Long: `Reconfigure sends new run settings to the server. Only flags given
explicitly override the current configuration; everything else is kept. The
server reseeds the new run unless --seed is passed, applies the command only
while idle, and reports the outcome on the notification channel (see
beamlinectl watch).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &api.ReconfigRequest{}
			flags := cmd.Flags()

			stringFlag := func(name string, target **string) {
				if flags.Changed(name) {
					value, _ := flags.GetString(name)
					*target = &value
				}
			}
			intFlag := func(name string, target **int) {
				if flags.Changed(name) {
					value, _ := flags.GetInt(name)
					*target = &value
				}
			}

			stringFlag("config-file", &request.ConfigFile)
			stringFlag("generator", &request.Generator)
			stringFlag("trigger", &request.Trigger)
			stringFlag("engine", &request.Engine)
			stringFlag("ext-kin-file", &request.ExtKinFile)
			stringFlag("embed-into", &request.EmbedIntoFile)
			stringFlag("spectrum-file", &request.SpectrumFile)
			intFlag("events", &request.MaxEvents)
			intFlag("chunk-size", &request.ChunkSize)
			intFlag("multiplicity", &request.Multiplicity)
			if flags.Changed("seed") {
				seed, _ := flags.GetInt64("seed")
				request.Seed = &seed
			}

			params, _ := flags.GetStringArray("param")
			for _, param := range params {
				name, value, found := strings.Cut(param, "=")
				if !found || name == "" {
					return fmt.Errorf("malformed --param %q, expected name=value", param)
				}
				if request.Params == nil {
					request.Params = map[string]string{}
				}
				request.Params[name] = value
			}

			return appFromFlags(cmd).Reconfigure(request)
		},
	}

	cmd.Flags().String("config-file", "", "server-side YAML file replacing the whole run configuration")
	cmd.Flags().String("generator", "", "generator kind for the next run")
	cmd.Flags().String("trigger", "", "trigger expression, e.g. minmult:50")
	cmd.Flags().String("engine", "", "engine workers should run")
	cmd.Flags().String("ext-kin-file", "", "kinematics file for the extkin generator")
	cmd.Flags().String("embed-into", "", "background file to embed generated events into")
	cmd.Flags().String("spectrum-file", "", "spectrum table for the spectrum generator")
	cmd.Flags().Int("events", 0, "event budget of the next run")
	cmd.Flags().Int("chunk-size", 0, "primaries per chunk")
	cmd.Flags().Int("multiplicity", 0, "primaries per event")
	cmd.Flags().Int64("seed", 0, "random seed; omit to draw a fresh one")
	cmd.Flags().StringArray("param", nil, "generator parameter as name=value, repeatable")
	return cmd
}
