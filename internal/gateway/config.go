package gateway

import (
	"runtime"
	"time"

	"github.com/why-shiro/J4Fluxer/pkg/entity"
)

// DefaultURL is the Fluxer gateway endpoint.
const DefaultURL = "wss://gateway.fluxer.app/?v=1&encoding=json&compress=none"

// Config configures a Session.
type Config struct {
	URL     string
	Token   string
	Intents int

	// Status is the presence sent with Identify.
	Status entity.OnlineStatus

	// OS is reported in the Identify properties.
	OS string

	// Reconnect enables resume and reconnect after the connection drops.
	// When false the session ends at the first close.
	Reconnect bool

	// RequireHeartbeatAck closes a connection whose previous heartbeat
	// was not acknowledged by the time the next one is due.
	RequireHeartbeatAck bool

	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

func (c *Config) setDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Status == "" {
		c.Status = entity.StatusOnline
	}
	if c.OS == "" {
		c.OS = runtime.GOOS
	}
}
