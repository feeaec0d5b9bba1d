package util

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// The monotonic reader keeps internal state, so calls serialize on entropyMu.
var (
	entropy   = ulid.Monotonic(NewThreadsafeRand(time.Now().UnixNano()), 0)
	entropyMu sync.Mutex
)

// NewULID returns a lexicographically sortable unique id. Run ids are
// ULIDs so that runs order by start time in logs and output files.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Now(), entropy).String())
}
