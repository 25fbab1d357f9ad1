package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/why-shiro/J4Fluxer/internal/app"
	"github.com/why-shiro/J4Fluxer/internal/domain"
	"github.com/why-shiro/J4Fluxer/internal/ports"
	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/events"
	"github.com/why-shiro/J4Fluxer/pkg/log"
)

var (
	errReconnectRequested = errors.New("gateway requested reconnect")
	errSessionInvalidated = errors.New("gateway invalidated the session")
)

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} }

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Session) { s.logger = log.OrNoop(logger) }
}

// WithStateEmitter registers a callback for session state changes.
func WithStateEmitter(e app.StateEmitter[State]) Option {
	return func(s *Session) { s.emitter = e }
}

// Session is one logical gateway session. It may span several
// connections when Config.Reconnect is set. A Session runs once; create
// a new one to connect again after Run returns.
type Session struct {
	cfg        Config
	dialer     ports.Dialer
	handlers   *Handlers
	dispatcher *events.Dispatcher
	logger     log.Logger
	emitter    app.StateEmitter[State]
	state      *app.Machine[State]
	backoff    *app.Backoff
	newTicker  func(time.Duration) ticker

	mu        sync.Mutex
	conn      ports.Conn
	status    entity.OnlineStatus
	sessionID string
	seq       int64
	hbStop    chan struct{}

	hbWG        sync.WaitGroup
	awaitingAck atomic.Bool
	lastBeat    atomic.Int64
	latency     atomic.Int64
}

// NewSession creates an idle session. Events produced by handlers are
// delivered through dispatcher.
func NewSession(cfg Config, dialer ports.Dialer, handlers *Handlers, dispatcher *events.Dispatcher, opts ...Option) *Session {
	cfg.setDefaults()
	s := &Session{
		cfg:        cfg,
		dialer:     dialer,
		handlers:   handlers,
		dispatcher: dispatcher,
		logger:     log.NewNoopLogger(),
		backoff:    app.NewBackoff(cfg.BackoffInitial, cfg.BackoffMax),
		newTicker:  newTimeTicker,
		status:     cfg.Status,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = app.NewMachine("gateway", StateIdle, sessionTransitions, s.logger, s.emitter)
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state.State()
}

// SessionID returns the id from the last READY, or "".
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Sequence returns the last sequence number received.
func (s *Session) Sequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Latency returns the round trip of the last acknowledged heartbeat.
func (s *Session) Latency() time.Duration {
	return time.Duration(s.latency.Load())
}

// Run connects and processes frames until ctx is done or the session
// ends. It returns nil when ctx ends, a *CloseError for fatal close
// codes, and the connection error when reconnecting is disabled.
func (s *Session) Run(ctx context.Context) error {
	if err := s.state.TransitionTo(StateConnecting, "run"); err != nil {
		return err
	}
	defer func() { _ = s.state.TransitionTo(StateClosed, "session ended") }()

	for {
		err := s.connect(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var ce *CloseError
		if errors.As(err, &ce) && ce.Fatal() {
			s.logger.Error("gateway closed the session",
				log.Int("code", ce.Code),
				log.Err(err),
			)
			return err
		}
		if !s.cfg.Reconnect {
			s.logger.Warn("gateway connection closed", log.Err(err))
			return err
		}

		_ = s.state.TransitionTo(StateReconnecting, err.Error())
		s.logger.Warn("gateway connection lost, reconnecting",
			log.Int(log.KeyAttempt, s.backoff.Attempt()+1),
			log.Err(err),
		)
		if s.backoff.Wait(ctx) != nil {
			return nil
		}
		if err := s.state.TransitionTo(StateConnecting, "reconnect"); err != nil {
			return err
		}
	}
}

// connect runs one connection from dial to close.
func (s *Session) connect(ctx context.Context) error {
	conn, err := s.dialer.Dial(ctx, s.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		s.detach(conn)
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close(CloseNormal, closeReasonStop)
		case <-done:
		}
	}()

	if err := s.state.TransitionTo(StateIdentifying, "transport open"); err != nil {
		return err
	}
	if err := s.handshake(conn); err != nil {
		return err
	}

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := s.processFrame(conn, data); err != nil {
			_ = conn.Close(CloseReconnect, closeReasonRestart)
			return err
		}
	}
}

func (s *Session) detach(conn ports.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()

	s.stopHeartbeat()
	_ = conn.Close(CloseReconnect, closeReasonDropped)
}

func (s *Session) current(conn ports.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == conn
}

// handshake sends Resume when a session can be resumed, else Identify.
func (s *Session) handshake(conn ports.Conn) error {
	s.mu.Lock()
	id, seq, status := s.sessionID, s.seq, s.status
	s.mu.Unlock()

	var (
		payload []byte
		err     error
	)
	if s.cfg.Reconnect && id != "" {
		s.logger.Info("resuming gateway session", log.Int64("seq", seq))
		payload, err = encodeResume(s.cfg.Token, id, seq)
	} else {
		payload, err = encodeIdentify(s.cfg.Token, s.cfg.Intents, s.cfg.OS, status)
	}
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(payload); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	return nil
}

// processFrame handles one frame. Frame errors are logged and the frame
// is dropped; only reconnect requests are returned.
func (s *Session) processFrame(conn ports.Conn, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("frame processing panicked", log.Any("panic", r))
			err = nil
		}
	}()

	f, err := DecodeFrame(data)
	if err != nil {
		s.logger.Error("dropping undecodable frame", log.Err(err))
		return nil
	}
	if f.S != nil {
		s.mu.Lock()
		s.seq = *f.S
		s.mu.Unlock()
	}

	switch f.Op {
	case OpHello:
		s.onHello(conn, f.D)
		return nil
	case OpHeartbeatAck:
		s.onHeartbeatAck()
		return nil
	case OpHeartbeat:
		if err := s.sendHeartbeat(conn); err != nil {
			s.logger.Warn("heartbeat failed", log.Err(err))
		}
		return nil
	case OpReconnect:
		s.logger.Info("gateway requested reconnect")
		return errReconnectRequested
	case OpInvalidSession:
		var resumable bool
		_ = json.Unmarshal(f.D, &resumable)
		if !resumable {
			s.mu.Lock()
			s.sessionID = ""
			s.seq = 0
			s.mu.Unlock()
		}
		s.logger.Warn("gateway session invalidated", log.Bool("resumable", resumable))
		return errSessionInvalidated
	}

	if f.T == "" {
		return nil
	}
	s.dispatch(f)
	return nil
}

func (s *Session) dispatch(f *Frame) {
	if f.T == events.TypeResumed {
		_ = s.state.TransitionTo(StateActive, "resumed")
		s.backoff.Reset()
		s.logger.Info("gateway session resumed")
		return
	}

	ev, err := s.handlers.Handle(f.T, f.D)
	if err != nil {
		s.logger.Error("dropping dispatch frame",
			log.String(log.KeyEventType, f.T),
			log.Err(err),
		)
		return
	}
	if ev == nil {
		return
	}
	if r, ok := ev.(*events.Ready); ok {
		s.mu.Lock()
		s.sessionID = r.SessionID
		s.mu.Unlock()
		s.backoff.Reset()
		s.logger.Info("login successful", log.String("username", r.Username))
	}
	s.dispatcher.Dispatch(ev)
}

func (s *Session) onHello(conn ports.Conn, d []byte) {
	var h helloData
	if err := json.Unmarshal(d, &h); err != nil || h.HeartbeatInterval <= 0 {
		s.logger.Error("invalid hello", log.Err(err), log.Int64("heartbeat_interval", h.HeartbeatInterval))
		return
	}
	interval := time.Duration(h.HeartbeatInterval) * time.Millisecond

	_ = s.state.TransitionTo(StateActive, "hello")
	s.startHeartbeat(conn, interval)
	s.logger.Debug("heartbeat started", log.Duration("interval", interval))
}

// startHeartbeat replaces the running heartbeat. The first beat is sent
// one interval after Hello.
func (s *Session) startHeartbeat(conn ports.Conn, interval time.Duration) {
	s.stopHeartbeat()

	stop := make(chan struct{})
	t := s.newTicker(interval)
	s.mu.Lock()
	s.hbStop = stop
	s.mu.Unlock()
	s.awaitingAck.Store(false)

	s.hbWG.Add(1)
	go func() {
		defer s.hbWG.Done()
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C():
				if !s.beat(conn) {
					return
				}
			}
		}
	}()
}

func (s *Session) stopHeartbeat() {
	s.mu.Lock()
	stop := s.hbStop
	s.hbStop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	s.hbWG.Wait()
}

// beat sends one heartbeat and reports whether the loop should go on.
func (s *Session) beat(conn ports.Conn) bool {
	if !s.current(conn) {
		return false
	}
	if s.cfg.RequireHeartbeatAck && s.awaitingAck.Load() {
		s.logger.Warn("heartbeat not acknowledged, closing connection")
		_ = conn.Close(CloseReconnect, closeReasonZombie)
		return false
	}
	if err := s.sendHeartbeat(conn); err != nil {
		s.logger.Warn("heartbeat failed", log.Err(err))
		return false
	}
	return true
}

func (s *Session) sendHeartbeat(conn ports.Conn) error {
	payload, err := encodeHeartbeat()
	if err != nil {
		return err
	}
	s.lastBeat.Store(time.Now().UnixNano())
	s.awaitingAck.Store(true)
	return conn.WriteMessage(payload)
}

func (s *Session) onHeartbeatAck() {
	s.awaitingAck.Store(false)
	if sent := s.lastBeat.Load(); sent > 0 {
		s.latency.Store(time.Now().UnixNano() - sent)
	}
}

// SetPresence sends a presence update. It logs a warning and returns
// domain.ErrNotConnected when the session is not active. A status sent
// successfully is reused by later Identify frames.
func (s *Session) SetPresence(status entity.OnlineStatus) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil || s.State() != StateActive {
		s.logger.Warn("gateway not open, presence not sent", log.String("status", string(status)))
		return domain.ErrNotConnected
	}

	payload, err := encodePresence(status)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(payload); err != nil {
		return fmt.Errorf("send presence: %w", err)
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.logger.Info("presence updated", log.String("status", string(status)))
	return nil
}
