//go:build deadlock

package syncutil

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = true

func init() {
	// Handler replies run catalog and summarizer calls under a creator lock.
	deadlock.Opts.DeadlockTimeout = 90 * time.Second
}

// A Mutex is a mutual exclusion lock that reports lock-order problems.
type Mutex struct {
	deadlock.Mutex
}

// An RWMutex is a reader/writer lock that reports lock-order problems.
type RWMutex struct {
	deadlock.RWMutex
}
