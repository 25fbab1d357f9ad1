package rest

import (
	"context"
	"strings"
	"time"

	httpadapter "github.com/why-shiro/J4Fluxer/internal/adapters/http"
	"github.com/why-shiro/J4Fluxer/internal/ports"
	"github.com/why-shiro/J4Fluxer/pkg/log"
)

// Defaults for the Fluxer REST API.
const (
	DefaultBaseURL = "https://api.fluxer.app/v1"
	UserAgent      = "J4Fluxer (Go, 1.0.0)"
)

// RequesterConfig configures a Requester.
type RequesterConfig struct {
	// Token authenticates every request. "Bot " is prepended unless the
	// token already starts with "Bot " or "flx_".
	Token string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient ports.HTTPClient

	// Logger defaults to a no-op logger.
	Logger log.Logger

	// Limiter defaults to NewRateLimiter(0, 0).
	Limiter *RateLimiter

	// Scheduler runs delayed actions. One is created when nil and stopped
	// by Close.
	Scheduler *Scheduler

	// Timeout bounds a single request when the caller's context has no
	// deadline. Zero means no bound.
	Timeout time.Duration
}

// Requester executes compiled routes against the REST API. It is safe for
// concurrent use.
type Requester struct {
	sender    *httpadapter.Sender
	baseURL   string
	auth      string
	logger    log.Logger
	limiter   *RateLimiter
	scheduler *Scheduler
	ownsSched bool
	timeout   time.Duration
}

// NewRequester creates a requester from cfg.
func NewRequester(cfg RequesterConfig) *Requester {
	r := &Requester{
		sender:    httpadapter.NewSender(cfg.HTTPClient),
		baseURL:   cfg.BaseURL,
		auth:      AuthorizationHeader(cfg.Token),
		logger:    log.OrNoop(cfg.Logger),
		limiter:   cfg.Limiter,
		scheduler: cfg.Scheduler,
		timeout:   cfg.Timeout,
	}
	if r.baseURL == "" {
		r.baseURL = DefaultBaseURL
	}
	if r.limiter == nil {
		r.limiter = NewRateLimiter(0, 0)
	}
	if r.scheduler == nil {
		r.scheduler = NewScheduler()
		r.ownsSched = true
	}
	return r
}

// AuthorizationHeader returns the Authorization value for token.
func AuthorizationHeader(token string) string {
	if strings.HasPrefix(token, "Bot ") || strings.HasPrefix(token, "flx_") {
		return token
	}
	return "Bot " + token
}

// Logger returns the requester's logger.
func (r *Requester) Logger() log.Logger { return r.logger }

// Scheduler returns the scheduler used for delayed actions.
func (r *Requester) Scheduler() *Scheduler { return r.scheduler }

// Close stops the scheduler if the requester created it.
func (r *Requester) Close() {
	if r.ownsSched {
		r.scheduler.Stop()
	}
}

// Execute waits for the rate limiter, sends the request and returns the
// response. Non-2xx responses are returned without error; only failures
// to obtain a response are reported, as *TransportError.
func (r *Requester) Execute(ctx context.Context, route CompiledRoute, body []byte) (*httpadapter.Response, error) {
	if r.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
	}

	if err := r.limiter.Wait(ctx, route.Bucket); err != nil {
		return nil, &TransportError{Route: route.String(), Err: err}
	}

	resp, err := r.sender.Send(ctx, httpadapter.Request{
		Method:        route.Method,
		URL:           route.URL(r.baseURL),
		Authorization: r.auth,
		UserAgent:     UserAgent,
		Body:          body,
	})
	if err != nil {
		return nil, &TransportError{Route: route.String(), Err: err}
	}

	r.limiter.Update(route.Bucket, resp.StatusCode, resp.Header)

	if !resp.OK() {
		r.logger.Debug("api request failed",
			log.String(log.KeyRoute, route.String()),
			log.Int(log.KeyStatus, resp.StatusCode),
			log.String("body", string(resp.Body)),
		)
	}
	return resp, nil
}
