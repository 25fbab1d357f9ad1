package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/why-shiro/J4Fluxer/pkg/log"
)

// Listener receives every dispatched event.
type Listener interface {
	OnEvent(e Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event) error

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) error { return f(e) }

// Dispatcher fans events out to listeners in registration order.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    log.Logger
	inflight  atomic.Int32
}

// NewDispatcher creates a dispatcher that logs listener failures to logger.
func NewDispatcher(logger log.Logger) *Dispatcher {
	return &Dispatcher{logger: log.OrNoop(logger)}
}

// Register appends listeners. The same listener registered twice is
// called twice.
func (d *Dispatcher) Register(listeners ...Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			d.listeners = append(d.listeners, l)
		}
	}
}

// Len returns the number of registered listeners.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners)
}

// Dispatch delivers e to every listener and returns once all have run.
func (d *Dispatcher) Dispatch(e Event) {
	d.mu.RLock()
	listeners := d.listeners
	d.mu.RUnlock()

	d.inflight.Add(1)
	defer d.inflight.Add(-1)
	for i, l := range listeners {
		if err := d.deliver(l, e); err != nil {
			d.logger.Error("listener failed",
				log.String(log.KeyEventType, e.Type()),
				log.Int(log.KeyListener, i),
				log.Err(err),
			)
		}
	}
}

// Dispatching reports whether a Dispatch call is running listeners.
func (d *Dispatcher) Dispatching() bool {
	return d.inflight.Load() > 0
}

func (d *Dispatcher) deliver(l Listener, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.OnEvent(e)
}
