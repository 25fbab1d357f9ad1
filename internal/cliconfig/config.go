package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/fluxer"
	"github.com/why-shiro/J4Fluxer/pkg/log"
)

// DefaultPingCommand is the message the CLI answers with "Pong!".
const DefaultPingCommand = "!ping"

// Config holds CLI configuration for the fluxer command.
type Config struct {
	Token string

	GatewayURL string
	APIURL     string

	Status  string
	Intents int

	NoReconnect         bool
	RequireHeartbeatAck bool

	HTTPTimeout     time.Duration
	GlobalRateLimit float64
	RouteRateLimit  float64

	LogLevel    string
	PingCommand string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		GatewayURL:      fluxer.DefaultGatewayURL,
		APIURL:          fluxer.DefaultAPIURL,
		Status:          string(entity.StatusOnline),
		HTTPTimeout:     fluxer.DefaultHTTPTimeout,
		GlobalRateLimit: fluxer.DefaultGlobalRateLimit,
		RouteRateLimit:  fluxer.DefaultRouteRateLimit,
		LogLevel:        zerolog.InfoLevel.String(),
		PingCommand:     DefaultPingCommand,
	}
}

// Validate checks the configuration for errors and normalises URLs.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}

	if _, err := entity.ParseOnlineStatus(c.Status); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Intents < 0 {
		return fmt.Errorf("intents must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.PingCommand == "" {
		c.PingCommand = DefaultPingCommand
	}

	if c.APIURL == "" {
		c.APIURL = fluxer.DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	if c.GatewayURL == "" {
		c.GatewayURL = fluxer.DefaultGatewayURL
	}

	return nil
}

// ClientConfig converts the CLI configuration into the library Config.
// configFile is handed to plugins watching the file.
func (c *Config) ClientConfig(configFile string) fluxer.Config {
	return fluxer.Config{
		Token:               c.Token,
		GatewayURL:          c.GatewayURL,
		APIURL:              c.APIURL,
		Intents:             c.Intents,
		Status:              entity.OnlineStatus(c.Status),
		NoReconnect:         c.NoReconnect,
		RequireHeartbeatAck: c.RequireHeartbeatAck,
		HTTPTimeout:         c.HTTPTimeout,
		GlobalRateLimit:     c.GlobalRateLimit,
		RouteRateLimit:      c.RouteRateLimit,
		ConfigFile:          configFile,
	}
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.Token != "" {
		c.Token = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
