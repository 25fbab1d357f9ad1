package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// The status key is also watched at runtime by the presence watcher plugin.
type FileConfig struct {
	Token               string  `toml:"token"`
	GatewayURL          string  `toml:"gateway_url"`
	APIURL              string  `toml:"api_url"`
	Status              string  `toml:"status"`
	Intents             int     `toml:"intents"`
	NoReconnect         *bool   `toml:"no_reconnect"`
	RequireHeartbeatAck *bool   `toml:"require_heartbeat_ack"`
	HTTPTimeout         string  `toml:"http_timeout"`
	GlobalRateLimit     float64 `toml:"global_rate_limit"`
	RouteRateLimit      float64 `toml:"route_rate_limit"`
	LogLevel            string  `toml:"log_level"`
	PingCommand         string  `toml:"ping_command"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.fluxer/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".fluxer", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("token", fc.Token, &cfg.Token)
	s.setString("gateway-url", fc.GatewayURL, &cfg.GatewayURL)
	s.setString("api-url", fc.APIURL, &cfg.APIURL)
	s.setString("status", fc.Status, &cfg.Status)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("ping-command", fc.PingCommand, &cfg.PingCommand)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("intents", fc.Intents, &cfg.Intents)
	s.setFloat("global-rate-limit", fc.GlobalRateLimit, &cfg.GlobalRateLimit)
	s.setFloat("route-rate-limit", fc.RouteRateLimit, &cfg.RouteRateLimit)

	s.setBool("no-reconnect", fc.NoReconnect, &cfg.NoReconnect)
	s.setBool("require-heartbeat-ack", fc.RequireHeartbeatAck, &cfg.RequireHeartbeatAck)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
