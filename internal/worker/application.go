package worker

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"

	"github.com/beamline-project/beamline/internal/common/natsutil"
	"github.com/beamline-project/beamline/internal/common/util"
	"github.com/beamline-project/beamline/internal/worker/configuration"
	"github.com/beamline-project/beamline/internal/worker/engine"
	"github.com/beamline-project/beamline/internal/worker/metrics"
	"github.com/beamline-project/beamline/internal/worker/reporter"
	"github.com/beamline-project/beamline/pkg/api"
	"github.com/beamline-project/beamline/pkg/client"
)

// StartUp wires the worker together and starts its kernel. It returns a
// shutdown function and a wait group that completes when the kernel stops,
// which also happens on its own once the run is exhausted.
func StartUp(config configuration.WorkerConfiguration) (func(), *sync.WaitGroup) {
	conn, err := natsutil.Connect(config.Nats.Servers, fmt.Sprintf("beamline-worker-%d", config.WorkerID))
	if err != nil {
		log.Errorf("Failed to connect to NATS because %s", err)
		os.Exit(-1)
	}

	protocolClient := client.New(conn, client.ConnectionDetails{
		Subjects:        config.Nats.Subjects,
		ReceiveTimeout:  config.Request.ReceiveTimeout,
		ReceiveAttempts: config.Request.ReceiveAttempts,
		StatusTimeout:   config.Request.StatusTimeout,
	})
	protocolClient.OnReceiveRetry = metrics.RecordReceiveRetry

	runConfig, err := fetchRunConfig(protocolClient, config.Request)
	if err != nil {
		log.Errorf("Failed to fetch run configuration because %s", err)
		os.Exit(-1)
	}
	log.Infof("Run configuration received: generator=%s events=%d chunkSize=%d engine=%s",
		runConfig.Generator, runConfig.MaxEvents, runConfig.ChunkSize, runConfig.Engine)

	engineName := config.Engine.Name
	if engineName == "" {
		engineName = runConfig.Engine
	}
	if engineName == "" {
		engineName = "noop"
	}
	eng, err := engine.New(engineName, engine.Config{
		WorkerID:  config.WorkerID,
		OutputDir: config.Engine.OutputDir,
	})
	if err != nil {
		log.Errorf("Failed to construct engine because %s", err)
		os.Exit(-1)
	}

	rep, err := reporter.New(conn, &config)
	if err != nil {
		log.Errorf("Failed to set up completion reporting because %s", err)
		os.Exit(-1)
	}

	kernel := NewKernel(config.WorkerID, protocolClient, eng, rep)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kernel.Run(ctx); err != nil {
			log.WithError(err).Error("Worker kernel failed")
		}
	}()

	return func() {
		cancel()
		wg.Wait()
		util.CloseResource("engine", eng)
		util.CloseResource("completion reporter", rep)
		conn.Close()
		log.Infof("Shutdown complete")
	}, wg
}

// fetchRunConfig asks the server for the run configuration, retrying so
// workers may be launched before the server is up.
func fetchRunConfig(protocolClient *client.Client, config configuration.RequestConfiguration) (*api.RunConfig, error) {
	attempts := config.ConfigFetchAttempts
	if attempts <= 0 {
		attempts = 10
	}
	opts := []retry.Option{
		retry.Attempts(uint(attempts)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Warnf("Run configuration fetch attempt %d failed: %v", attempt+1, err)
		}),
	}
	if config.ConfigFetchDelay > 0 {
		opts = append(opts, retry.Delay(config.ConfigFetchDelay))
	}
	var runConfig *api.RunConfig
	err := retry.Do(
		func() error {
			var err error
			runConfig, err = protocolClient.RequestRunConfig(context.Background())
			return err
		},
		opts...,
	)
	return runConfig, err
}
