package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beamline-project/beamline/internal/beamlinectl"
)

var rootCmd = &cobra.Command{
	Use:   "beamlinectl",
	Short: "beamlinectl controls a running beamline primary server.",
}

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String(
		"servers", "nats://127.0.0.1:4222", "comma separated NATS server URLs")
}

// appFromFlags builds the application with the connection parameters every
// command shares.
func appFromFlags(cmd *cobra.Command) *beamlinectl.App {
	a := beamlinectl.New()
	servers, _ := cmd.Flags().GetString("servers")
	a.Params.Servers = strings.Split(servers, ",")
	return a
}
