package common

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/beamline-project/beamline/internal/common/logging"
)

const baseConfigFileName = "config"

// BindCommandlineArguments makes pflag values visible through viper so that
// config keys can be overridden from the command line.
func BindCommandlineArguments() {
	err := viper.BindPFlags(pflag.CommandLine)
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

// LoadConfig reads the base application config from defaultPath, merges the
// optional user-specified file over it, then applies BEAMLINE_* environment
// overrides and unmarshals the result into config.
func LoadConfig(config interface{}, defaultPath string, overrideConfig string) *viper.Viper {
	v := viper.GetViper()
	v.SetConfigName(baseConfigFileName)
	v.AddConfigPath(defaultPath)
	if err := v.ReadInConfig(); err != nil {
		log.Error(err)
		os.Exit(-1)
	}

	if overrideConfig != "" {
		v.SetConfigFile(overrideConfig)
		if err := v.MergeInConfig(); err != nil {
			log.Error(err)
			os.Exit(-1)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("BEAMLINE")
	v.AutomaticEnv()

	if err := v.Unmarshal(config); err != nil {
		log.Error(err)
		os.Exit(-1)
	}

	return v
}

// ConfigureCommandLineLogging strips timestamps and levels, for CLI tools
// whose output is read by humans.
func ConfigureCommandLineLogging() {
	commandLineFormatter := new(logging.CommandLineFormatter)
	log.SetFormatter(commandLineFormatter)
	log.SetOutput(os.Stdout)
}

// ConfigureLogging sets up logging for long-running components.
func ConfigureLogging() {
	log.SetLevel(readEnvironmentLogLevel())
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

func readEnvironmentLogLevel() log.Level {
	level, ok := os.LookupEnv("LOG_LEVEL")
	if ok {
		logLevel, err := log.ParseLevel(level)
		if err == nil {
			return logLevel
		}
	}
	return log.InfoLevel
}
