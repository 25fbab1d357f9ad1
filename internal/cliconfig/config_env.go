package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (FLUXER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("token", os.Getenv("FLUXER_TOKEN"), &cfg.Token)
	s.setString("gateway-url", os.Getenv("FLUXER_GATEWAY_URL"), &cfg.GatewayURL)
	s.setString("api-url", os.Getenv("FLUXER_API_URL"), &cfg.APIURL)
	s.setString("status", os.Getenv("FLUXER_STATUS"), &cfg.Status)
	s.setString("log-level", os.Getenv("FLUXER_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("ping-command", os.Getenv("FLUXER_PING_COMMAND"), &cfg.PingCommand)

	if err := s.setDuration("timeout", os.Getenv("FLUXER_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("intents", os.Getenv("FLUXER_INTENTS"), &cfg.Intents); err != nil {
		return err
	}
	if err := s.setFloatFromString("global-rate-limit", os.Getenv("FLUXER_GLOBAL_RATE_LIMIT"), &cfg.GlobalRateLimit); err != nil {
		return err
	}
	if err := s.setFloatFromString("route-rate-limit", os.Getenv("FLUXER_ROUTE_RATE_LIMIT"), &cfg.RouteRateLimit); err != nil {
		return err
	}

	s.setBoolFromString("no-reconnect", os.Getenv("FLUXER_NO_RECONNECT"), &cfg.NoReconnect)
	s.setBoolFromString("require-heartbeat-ack", os.Getenv("FLUXER_REQUIRE_HEARTBEAT_ACK"), &cfg.RequireHeartbeatAck)

	return nil
}
