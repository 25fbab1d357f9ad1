package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/why-shiro/J4Fluxer/internal/ports"
	"github.com/why-shiro/J4Fluxer/pkg/cache"
	"github.com/why-shiro/J4Fluxer/pkg/events"
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

const waitTimeout = 2 * time.Second

var errLocalClose = errors.New("use of closed connection")

// fakeConn is an in-memory ports.Conn driven by the test.
type fakeConn struct {
	in      chan []byte
	written chan []byte
	closed  chan struct{}

	mu        sync.Mutex
	readErr   error
	closeCode int
	once      sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan []byte, 16),
		written: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case d := <-c.in:
		return d, nil
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.readErr
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return errLocalClose
	default:
	}
	c.written <- append([]byte(nil), data...)
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.shutdown(code, errLocalClose)
	return nil
}

// peerClose simulates the gateway closing the connection.
func (c *fakeConn) peerClose(code int) {
	c.shutdown(code, &CloseError{Code: code})
}

func (c *fakeConn) shutdown(code int, err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.readErr = err
		c.closeCode = code
		c.mu.Unlock()
		close(c.closed)
	})
}

func (c *fakeConn) code() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

func (c *fakeConn) send(frame string) {
	c.in <- []byte(frame)
}

func (c *fakeConn) nextWrite(t *testing.T) string {
	t.Helper()
	select {
	case d := <-c.written:
		return string(d)
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a write")
		return ""
	}
}

func (c *fakeConn) noWrite(t *testing.T) {
	t.Helper()
	select {
	case d := <-c.written:
		t.Fatalf("unexpected write %s", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func (c *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for close")
	}
}

// fakeDialer hands out queued connections.
type fakeDialer struct {
	conns chan *fakeConn
	dials atomic.Int32
}

func newFakeDialer(conns ...*fakeConn) *fakeDialer {
	d := &fakeDialer{conns: make(chan *fakeConn, 8)}
	for _, c := range conns {
		d.conns <- c
	}
	return d
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (ports.Conn, error) {
	d.dials.Add(1)
	select {
	case c := <-d.conns:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fakeTicker is fired by hand.
type fakeTicker struct {
	ch       chan time.Time
	interval time.Duration
	stopped  atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// tick delivers one tick and reports whether the heartbeat loop took it.
func (t *fakeTicker) tick() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

// recorder collects dispatched events.
type recorder struct {
	events chan events.Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan events.Event, 64)}
}

func (r *recorder) OnEvent(e events.Event) error {
	r.events <- e
	return nil
}

func (r *recorder) next(t *testing.T) events.Event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.events:
		t.Fatalf("unexpected event %T", e)
	case <-time.After(50 * time.Millisecond):
	}
}

type harness struct {
	session  *Session
	dialer   *fakeDialer
	events   *recorder
	cache    *cache.Guilds
	tickers  chan *fakeTicker
	errc     chan error
	cancel   context.CancelFunc
	requester *rest.Requester
}

func newHarness(t *testing.T, cfg Config, conns ...*fakeConn) *harness {
	t.Helper()
	if cfg.Token == "" {
		cfg.Token = "abc"
	}
	if cfg.OS == "" {
		cfg.OS = "linux"
	}
	if cfg.BackoffInitial == 0 {
		cfg.BackoffInitial = time.Millisecond
		cfg.BackoffMax = 5 * time.Millisecond
	}

	r := rest.NewRequester(rest.RequesterConfig{Token: cfg.Token})
	t.Cleanup(r.Close)

	h := &harness{
		dialer:   newFakeDialer(conns...),
		events:   newRecorder(),
		cache:    cache.NewGuilds(r),
		tickers:  make(chan *fakeTicker, 8),
		errc:     make(chan error, 1),
		requester: r,
	}
	d := events.NewDispatcher(nil)
	d.Register(h.events)

	h.session = NewSession(cfg, h.dialer, NewHandlers(h.cache, r), d)
	h.session.newTicker = func(interval time.Duration) ticker {
		ft := &fakeTicker{ch: make(chan time.Time), interval: interval}
		h.tickers <- ft
		return ft
	}
	return h
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errc <- h.session.Run(ctx) }()
	t.Cleanup(cancel)
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errc:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("Run did not return")
		return nil
	}
}

func (h *harness) ticker(t *testing.T) *fakeTicker {
	t.Helper()
	select {
	case ft := <-h.tickers:
		return ft
	case <-time.After(waitTimeout):
		t.Fatal("heartbeat never started")
		return nil
	}
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", s.State(), want)
}
