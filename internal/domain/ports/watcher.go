package ports

import "context"

// ConfigWatcher defines the contract for configuration file monitoring.
type ConfigWatcher interface {
	// Start begins watching the configuration file.
	Start(ctx context.Context) error

	// Stop terminates watching.
	Stop() error

	// IsRunning returns true if the watcher is active.
	IsRunning() bool
}
