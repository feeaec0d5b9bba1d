package beamline

import (
	"fmt"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/beamline-project/beamline/internal/beamline/metrics"
	"github.com/beamline-project/beamline/pkg/api"
)

const notificationPrefix = "SERVER : STATUS : "

// enqueueControl runs on the NATS callback goroutine and must not block, so
// commands beyond the backlog are dropped with a warning.
func (s *PrimaryServer) enqueueControl(msg *nats.Msg) {
	command := string(msg.Data)
	select {
	case s.controlCh <- command:
	default:
		log.Warnf("Control backlog full, dropping command %q", command)
	}
}

// handleControl applies a control command. Stop commands are honoured in any
// state; reconfigurations only while Idle, because an active run must not
// change under its workers.
func (s *PrimaryServer) handleControl(command string) {
	log.Infof("Control command received: %q", command)

	request, err := api.ParseReconfigCommand(command)
	if err != nil {
		metrics.RecordReconfiguration("rejected")
		s.notifyf("control command rejected: %v", err)
		return
	}

	if request.Stop {
		s.notify("stop requested")
		s.setState(api.StateStopped)
		return
	}

	if s.State() != api.StateIdle {
		metrics.RecordReconfiguration("rejected")
		s.notifyf("reconfiguration rejected: server is %s, not %s", s.State(), api.StateIdle)
		return
	}

	// reseed unless the command names a seed explicitly
	base := s.coordinator.Config()
	base.Seed = 0
	if request.ConfigFile != nil {
		base, err = loadRunConfigFile(*request.ConfigFile)
		if err != nil {
			metrics.RecordReconfiguration("rejected")
			s.notifyf("reconfiguration rejected: %v", err)
			return
		}
	}
	next := request.Apply(base)

	s.setState(api.StateInitializing)
	if err := s.coordinator.Configure(next); err != nil {
		metrics.RecordReconfiguration("failed")
		s.notifyf("reconfiguration failed: %v", err)
		// the previous stack is untouched, but its run stays complete
		s.setState(api.StateIdle)
		return
	}
	metrics.RecordReconfiguration("applied")
	s.beginCycle()
}

func loadRunConfigFile(path string) (*api.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read run config file %s", path)
	}
	config := &api.RunConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse run config file %s", path)
	}
	return config, nil
}

// notify publishes a human-readable status line on the notification subject
// and mirrors it to the log.
func (s *PrimaryServer) notify(message string) {
	line := notificationPrefix + message
	log.Info(line)
	if err := s.conn.Publish(s.config.Nats.Subjects.Notify, []byte(line)); err != nil {
		log.WithError(err).Warn("Failed to publish status notification")
	}
}

func (s *PrimaryServer) notifyf(format string, args ...interface{}) {
	s.notify(fmt.Sprintf(format, args...))
}
