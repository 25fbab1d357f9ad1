package app

import (
	"context"
	"sync"
	"time"

	"github.com/why-shiro/J4Fluxer/internal/domain"
	"github.com/why-shiro/J4Fluxer/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for graceful shutdown.
const ShutdownTimeout = 30 * time.Second

// State represents the lifecycle state of the client.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

var lifecycleTransitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting, StateStopping},
}

// Lifecycle tracks the client's run state and its background workers.
type Lifecycle struct {
	*Machine[State]

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger ports.Logger
}

// NewLifecycle creates a lifecycle in StateStopped.
func NewLifecycle(logger ports.Logger, emitter StateEmitter[State]) *Lifecycle {
	m := NewMachine("client", StateStopped, lifecycleTransitions, logger, emitter)
	return &Lifecycle{Machine: m, logger: m.logger}
}

// CanStart returns true if Start() can be called.
func (l *Lifecycle) CanStart() bool {
	return l.In(StateStopped, StateCrashed)
}

// CanStop returns true if Stop() can be called.
func (l *Lifecycle) CanStop() bool {
	return l.In(StateRunning, StateStarting, StateCrashed)
}

// Start moves to StateStarting, or returns domain.ErrAlreadyRunning.
func (l *Lifecycle) Start(reason string) error {
	if !l.CanStart() {
		return domain.ErrAlreadyRunning
	}
	return l.TransitionTo(StateStarting, reason)
}

// SetCancel stores the cancel function for graceful shutdown.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel triggers graceful shutdown.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Go runs fn as a tracked worker.
func (l *Lifecycle) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// WaitWithTimeout waits for all workers to finish with a timeout.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, forcing exit",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
