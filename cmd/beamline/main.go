package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/beamline-project/beamline/internal/beamline"
	"github.com/beamline-project/beamline/internal/beamline/configuration"
	"github.com/beamline-project/beamline/internal/common"
	"github.com/beamline-project/beamline/internal/common/health"
	"github.com/beamline-project/beamline/internal/common/natsutil"
)

const CustomConfigLocation string = "config"

func init() {
	pflag.String(CustomConfigLocation, "", "Fully qualified path to application configuration file")
	pflag.Parse()
}

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()

	var config configuration.BeamlineConfiguration
	userSpecifiedConfig := viper.GetString(CustomConfigLocation)
	common.LoadConfig(&config, "./config/beamline", userSpecifiedConfig)

	log.Info("Starting...")

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	shutdownMetricServer := common.ServeMetrics(config.MetricsPort)
	defer shutdownMetricServer()

	conn, err := natsutil.Connect(config.Nats.Servers, "beamline-server")
	if err != nil {
		log.Errorf("Failed to connect to NATS: %v", err)
		os.Exit(-1)
	}
	defer conn.Close()

	startupComplete := health.NewStartupCompleteChecker()
	healthChecks := health.NewMultiChecker(startupComplete, &natsutil.ConnectionHealth{Conn: conn})
	mux := http.NewServeMux()
	health.SetupHttpMux(mux, healthChecks)
	shutdownHttpServer := common.ServeHttp(config.HttpPort, mux)
	defer shutdownHttpServer()

	server := beamline.NewPrimaryServer(&config, conn)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stopSignal
		cancel()
	}()

	startupComplete.MarkComplete()
	if err := server.Serve(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		os.Exit(-1)
	}
	log.Info("Server shut down cleanly")
}
