package main

import (
	"github.com/beamline-project/beamline/cmd/beamlinectl/cmd"
	"github.com/beamline-project/beamline/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	cmd.Execute()
}
