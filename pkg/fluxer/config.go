package fluxer

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/why-shiro/J4Fluxer/internal/domain"
	"github.com/why-shiro/J4Fluxer/internal/gateway"
	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

// Default configuration values.
const (
	DefaultGatewayURL      = gateway.DefaultURL
	DefaultAPIURL          = rest.DefaultBaseURL
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultBackoffInitial  = time.Second
	DefaultBackoffMax      = 2 * time.Minute
	DefaultGlobalRateLimit = 50
	DefaultRouteRateLimit  = 5
)

// Config holds the client configuration. Only Token is required.
type Config struct {
	// Token authenticates the gateway session and REST calls.
	Token string `validate:"required"`

	// GatewayURL is the websocket endpoint.
	GatewayURL string `validate:"url,startswith=ws"`

	// APIURL is the REST base URL.
	APIURL string `validate:"url,startswith=http"`

	// Intents is sent with Identify. Default: 0
	Intents int `validate:"gte=0"`

	// Status is the presence sent with Identify. Default: online
	Status entity.OnlineStatus

	// NoReconnect ends the session at the first close instead of resuming.
	NoReconnect bool

	// RequireHeartbeatAck reconnects when a heartbeat goes unacknowledged.
	RequireHeartbeatAck bool

	// HTTPTimeout bounds each REST request. Default: 30s
	HTTPTimeout time.Duration `validate:"gte=0"`

	BackoffInitial time.Duration `validate:"gte=0"`
	BackoffMax     time.Duration `validate:"gte=0"`

	// GlobalRateLimit and RouteRateLimit are requests per second.
	GlobalRateLimit float64 `validate:"gte=0"`
	RouteRateLimit  float64 `validate:"gte=0"`

	// ConfigFile is handed to plugins that watch it.
	ConfigFile string
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	if c.GatewayURL == "" {
		c.GatewayURL = DefaultGatewayURL
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Status == "" {
		c.Status = entity.StatusOnline
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.BackoffInitial == 0 {
		c.BackoffInitial = DefaultBackoffInitial
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.GlobalRateLimit == 0 {
		c.GlobalRateLimit = DefaultGlobalRateLimit
	}
	if c.RouteRateLimit == 0 {
		c.RouteRateLimit = DefaultRouteRateLimit
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidConfig, c.Status)
	}
	if c.BackoffMax > 0 && c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("%w: backoff max %v below initial %v", domain.ErrInvalidConfig, c.BackoffMax, c.BackoffInitial)
	}
	return nil
}
