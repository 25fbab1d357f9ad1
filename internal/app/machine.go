package app

import (
	"fmt"
	"sync"

	"github.com/why-shiro/J4Fluxer/internal/domain"
	"github.com/why-shiro/J4Fluxer/internal/ports"
	"github.com/why-shiro/J4Fluxer/pkg/log"
)

// StateEmitter is called when a machine changes state.
type StateEmitter[S any] interface {
	OnStateChange(previous, current S, reason string)
}

// Machine is a state machine with an explicit transition table.
// Transitions to the current state are no-ops.
type Machine[S interface {
	comparable
	fmt.Stringer
}] struct {
	mu      sync.RWMutex
	name    string
	state   S
	allowed map[S][]S
	logger  ports.Logger
	emitter StateEmitter[S]
}

// NewMachine creates a machine in state initial. allowed lists the states
// reachable from each state; a state missing from allowed is terminal.
func NewMachine[S interface {
	comparable
	fmt.Stringer
}](name string, initial S, allowed map[S][]S, logger ports.Logger, emitter StateEmitter[S]) *Machine[S] {
	return &Machine[S]{
		name:    name,
		state:   initial,
		allowed: allowed,
		logger:  log.OrNoop(logger),
		emitter: emitter,
	}
}

// State returns the current state.
func (m *Machine[S]) State() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// In reports whether the current state is one of states.
func (m *Machine[S]) In(states ...S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range states {
		if m.state == s {
			return true
		}
	}
	return false
}

// TransitionTo moves to next. It returns an error wrapping
// domain.ErrInvalidTransition when next is not reachable.
func (m *Machine[S]) TransitionTo(next S, reason string) error {
	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return nil
	}

	ok := false
	for _, s := range m.allowed[prev] {
		if s == next {
			ok = true
			break
		}
	}
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%s: %s -> %s: %w", m.name, prev, next, domain.ErrInvalidTransition)
	}

	m.state = next
	m.mu.Unlock()

	// Emit outside of lock
	if m.emitter != nil {
		m.emitter.OnStateChange(prev, next, reason)
	}

	m.logger.Debug("state transition",
		ports.String("machine", m.name),
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}
