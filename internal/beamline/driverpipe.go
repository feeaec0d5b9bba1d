package beamline

import (
	"encoding/binary"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// DriverPipeEnv names the environment variable through which a launching
// driver passes the write end of its progress pipe, as a file descriptor
// number.
const DriverPipeEnv = "BEAMLINE_PIPE_TO_DRIVER"

// driverPipe reports served event ordinals to the process that launched the
// server. A nil pipe is valid and ignores all writes.
type driverPipe struct {
	file *os.File
}

func openDriverPipe() *driverPipe {
	raw, ok := os.LookupEnv(DriverPipeEnv)
	if !ok {
		return nil
	}
	fd, err := strconv.Atoi(raw)
	if err != nil || fd < 0 {
		log.Warnf("Ignoring invalid %s value %q", DriverPipeEnv, raw)
		return nil
	}
	log.Infof("Reporting event progress to driver pipe fd %d", fd)
	return &driverPipe{file: os.NewFile(uintptr(fd), "driver-pipe")}
}

// NotifyEvent writes the 1-based ordinal of the event whose first chunk was
// just served, as a little-endian int32.
func (p *driverPipe) NotifyEvent(ordinal int) {
	if p == nil {
		return
	}
	if err := binary.Write(p.file, binary.LittleEndian, int32(ordinal)); err != nil {
		log.WithError(err).Warn("Failed to write event ordinal to driver pipe")
	}
}
