package beamline

import (
	"encoding/binary"
	"io"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDriverPipe_WithoutEnv(t *testing.T) {
	require.NoError(t, os.Unsetenv(DriverPipeEnv))
	assert.Nil(t, openDriverPipe())
}

func TestOpenDriverPipe_InvalidValue(t *testing.T) {
	t.Setenv(DriverPipeEnv, "not-a-number")
	assert.Nil(t, openDriverPipe())

	t.Setenv(DriverPipeEnv, "-2")
	assert.Nil(t, openDriverPipe())
}

func TestDriverPipe_NilIgnoresWrites(t *testing.T) {
	var pipe *driverPipe
	pipe.NotifyEvent(7)
}

func TestDriverPipe_WritesOrdinalsLittleEndian(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	t.Setenv(DriverPipeEnv, strconv.Itoa(int(w.Fd())))
	pipe := openDriverPipe()
	require.NotNil(t, pipe)

	pipe.NotifyEvent(1)
	pipe.NotifyEvent(2)

	buf := make([]byte, 8)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[4:8]))
}

func TestServe_ReportsFirstChunkOfEachEventToDriver(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	t.Setenv(DriverPipeEnv, strconv.Itoa(int(w.Fd())))

	// 800 primaries over chunks of 500 give two parts per event
	f := newServerFixture(t, 8382, boxRun(2, 500, 800), true)
	f.start()

	for event := 1; event <= 2; event++ {
		first := f.pullChunk()
		assert.Equal(t, event, first.Info.EventID)
		assert.Equal(t, 1, first.Info.Part)
		second := f.pullChunk()
		assert.Equal(t, 2, second.Info.Part)
	}

	buf := make([]byte, 8)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[4:8]))

	// one write per event, nothing for the second parts
	require.NoError(t, r.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err = r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}
