package manager

import (
	"time"

	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// ManagerBuilderOption is a function that configures a manager instance during construction.
type ManagerBuilderOption func(*drawManager)

// WithBackend is an option builder that sets the GPU backend the manager
// uploads resources through and replays passes against. Required.
//
// Parameters:
//   - backend: the GPU backend
//
// Returns:
//   - ManagerBuilderOption: a function that applies the backend option to a manager
func WithBackend(backend gpu.Backend) ManagerBuilderOption {
	return func(m *drawManager) {
		m.backend = backend
	}
}

// WithComputeWorkers is an option builder that sets the number of pool
// workers used for submission prep. Defaults to the CPU count; a value of 1
// or less disables the pool and prep runs on the submitting goroutine.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - ManagerBuilderOption: a function that applies the worker count option to a manager
func WithComputeWorkers(workers int) ManagerBuilderOption {
	return func(m *drawManager) {
		m.computeWorkers = workers
	}
}

// WithStatsInterval is an option builder that sets how often submission
// statistics are logged. Defaults to one second; zero or negative disables
// logging while still accumulating counters.
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - ManagerBuilderOption: a function that applies the stats interval option to a manager
func WithStatsInterval(interval time.Duration) ManagerBuilderOption {
	return func(m *drawManager) {
		m.statsInterval = interval
	}
}
