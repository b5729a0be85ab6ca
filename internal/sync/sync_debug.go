//go:build deadlock

package sync

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// Mutex reports lock-order inversions and locks held too long.
type Mutex = deadlock.Mutex

// RWMutex reports lock-order inversions and locks held too long.
type RWMutex = deadlock.RWMutex

// Once is the standard sync.Once.
type Once = sync.Once

// WaitGroup is the standard sync.WaitGroup.
type WaitGroup = sync.WaitGroup

// NoDetectEnv turns detection off in a deadlock build.
const NoDetectEnv = "EZGBP_NO_DEADLOCK_DETECT"

// DetectionEnabled reports whether locks are checked for deadlocks.
func DetectionEnabled() bool { return !deadlock.Opts.Disable }

func init() {
	// Native dialogs block the UI thread; stay above their typical lifetime.
	deadlock.Opts.DeadlockTimeout = 30 * time.Second

	if os.Getenv(NoDetectEnv) != "" {
		deadlock.Opts.Disable = true
		return
	}

	deadlock.Opts.PrintAllCurrentGoroutines = true
	deadlock.Opts.OnPotentialDeadlock = func() {
		log.Error().Msg("potential deadlock detected, see report on stderr")
		os.Exit(2)
	}
	log.Warn().Msg("deadlock detection enabled")
}
