package fluxer

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/why-shiro/J4Fluxer/internal/adapters/ws"
	"github.com/why-shiro/J4Fluxer/internal/app"
	"github.com/why-shiro/J4Fluxer/internal/domain"
	"github.com/why-shiro/J4Fluxer/internal/gateway"
	"github.com/why-shiro/J4Fluxer/pkg/cache"
	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/events"
	"github.com/why-shiro/J4Fluxer/pkg/log"
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

// Client is a Fluxer bot client: one gateway session, a REST requester
// and the guild cache the session keeps current.
// Use New() to create an instance, then Start() to connect.
type Client struct {
	config     Config
	opts       options
	lifecycle  *app.Lifecycle
	requester  *rest.Requester
	cache      *cache.Guilds
	dispatcher *events.Dispatcher
	handlers   *gateway.Handlers
	logger     log.Logger
	plugins    []Plugin

	mu      sync.RWMutex
	session *gateway.Session
	closed  bool
}

// New creates a client with the given configuration.
// The client is created in StateStopped; call Start() to connect.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrNoop(o.logger)
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if o.dialer == nil {
		o.dialer = ws.NewDialer(rest.UserAgent)
	}

	emitter := &stateEmitter{handler: o.stateHandler}
	requester := rest.NewRequester(rest.RequesterConfig{
		Token:      cfg.Token,
		BaseURL:    cfg.APIURL,
		HTTPClient: o.httpClient,
		Logger:     logger,
		Limiter:    rest.NewRateLimiter(cfg.GlobalRateLimit, cfg.RouteRateLimit),
		Timeout:    cfg.HTTPTimeout,
	})
	guilds := cache.NewGuilds(requester)

	return &Client{
		config:     cfg,
		opts:       o,
		lifecycle:  app.NewLifecycle(logger, emitter),
		requester:  requester,
		cache:      guilds,
		dispatcher: events.NewDispatcher(logger),
		handlers:   gateway.NewHandlers(guilds, requester),
		logger:     logger,
		plugins:    o.plugins,
	}, nil
}

// Start connects to the gateway in the background and returns
// immediately. Events are delivered to listeners added with
// AddEventListener. The provided context bounds the whole session.
//
// Plugins are initialized before the session runs. They may call the
// client from Initialize; SetStatus returns ErrNotConnected until the
// session is active.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	if err := c.lifecycle.Start("Start() called"); err != nil {
		c.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.lifecycle.SetCancel(cancel)

	session := gateway.NewSession(gateway.Config{
		URL:                 c.config.GatewayURL,
		Token:               c.config.Token,
		Intents:             c.config.Intents,
		Status:              c.config.Status,
		Reconnect:           !c.config.NoReconnect,
		RequireHeartbeatAck: c.config.RequireHeartbeatAck,
		BackoffInitial:      c.config.BackoffInitial,
		BackoffMax:          c.config.BackoffMax,
	}, c.opts.dialer, c.handlers, c.dispatcher, gateway.WithLogger(c.logger))
	c.session = session
	c.mu.Unlock()

	pluginCfg := PluginConfig{
		Client:     c,
		ConfigFile: c.config.ConfigFile,
		Logger:     c.logger,
	}
	for _, p := range c.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			_ = c.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		c.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Stop may have run while plugins were initializing.
	if !c.lifecycle.In(app.StateStarting) {
		cancel()
		return domain.ErrNotRunning
	}

	c.lifecycle.Go(func() {
		if err := c.lifecycle.TransitionTo(app.StateRunning, "session starting"); err != nil {
			c.logger.Error("failed to transition to running", log.Err(err))
			return
		}

		if err := session.Run(runCtx); err != nil {
			c.logger.Error("gateway session ended", log.Err(err))
			_ = c.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// Stop closes the gateway session and shuts plugins down.
// Waits up to 30 seconds for the session goroutine before giving up.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
//
// Called while a listener is running, for example from the listener
// itself, Stop cancels the session and returns nil at once; plugin
// shutdown and the move to Stopped finish in the background.
func (c *Client) Stop() error {
	c.mu.Lock()

	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lifecycle.Cancel()
	c.mu.Unlock()

	if c.dispatcher.Dispatching() {
		go func() { _ = c.finishStop() }()
		return nil
	}
	return c.finishStop()
}

func (c *Client) finishStop() error {
	err := c.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	// Shutdown plugins (in reverse order)
	shutdownCtx := context.Background()
	for i := len(c.plugins) - 1; i >= 0; i-- {
		p := c.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			c.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(shutdownErr))
		} else {
			c.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}

	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Close stops the client if needed and releases the REST scheduler.
// Delayed actions that have not fired are dropped. The client cannot be
// started again.
func (c *Client) Close() error {
	var err error
	if c.lifecycle.CanStop() {
		err = c.Stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.requester.Close()
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *Client) Status() State {
	return convertState(c.lifecycle.State())
}

// AddEventListener registers listeners. Each event reaches the listeners
// in registration order on the gateway read goroutine, so a slow listener
// delays the next frame. A listener may call Stop; Close from a listener
// also returns without waiting for the session.
func (c *Client) AddEventListener(listeners ...events.Listener) {
	c.dispatcher.Register(listeners...)
}

// SetStatus updates the presence on the live session. It returns
// ErrNotConnected when no session is active.
func (c *Client) SetStatus(status entity.OnlineStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidConfig, status)
	}

	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session == nil {
		c.logger.Warn("gateway not open, presence not sent", log.String("status", string(status)))
		return domain.ErrNotConnected
	}
	return session.SetPresence(status)
}

// GatewayState returns the state of the current gateway session.
func (c *Client) GatewayState() GatewayState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return gateway.StateIdle
	}
	return c.session.State()
}

// Guild returns the cached guild, or fetches and caches it.
func (c *Client) Guild(ctx context.Context, id string) (*entity.Guild, error) {
	if g, ok := c.cache.Get(id); ok {
		return g, nil
	}
	g, err := entity.RetrieveGuild(c.requester, id).Complete(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Put(g)
	c.logger.Debug("guild cached", log.String(log.KeyGuildID, id))
	return g, nil
}

// CachedGuild returns the cached guild without fetching.
func (c *Client) CachedGuild(id string) (*entity.Guild, bool) {
	return c.cache.Get(id)
}

// StubGuild returns an id-only guild that can issue commands.
func (c *Client) StubGuild(id string) *entity.Guild {
	return c.cache.Stub(id)
}

// Channel returns the channel from whichever cached guild holds it, or a
// stub channel without guild context.
func (c *Client) Channel(id string) *entity.Channel {
	var found *entity.Channel
	c.cache.Range(func(g *entity.Guild) bool {
		if ch, ok := g.CachedChannel(id); ok {
			found = ch
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	return entity.StubChannel(id, "", c.requester)
}

// CreateGuild returns an action creating a guild named name.
func (c *Client) CreateGuild(name string) (*rest.Action[*entity.Guild], error) {
	return entity.CreateGuild(c.requester, name)
}

// RetrieveUser returns an action fetching a user.
func (c *Client) RetrieveUser(id string) *rest.Action[*entity.User] {
	return entity.RetrieveUser(c.requester, id)
}

// RetrieveSelf returns an action fetching the authenticated user.
func (c *Client) RetrieveSelf() *rest.Action[*entity.User] {
	return entity.RetrieveSelf(c.requester)
}

// Requester returns the REST requester shared by all entities.
func (c *Client) Requester() *rest.Requester {
	return c.requester
}

// Cache returns the guild cache.
func (c *Client) Cache() *cache.Guilds {
	return c.cache
}
