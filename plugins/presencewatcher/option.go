package presencewatcher

import "github.com/why-shiro/J4Fluxer/pkg/fluxer"

// WithPresenceWatcher returns a fluxer Option that enables presence hot
// reload. The plugin watches Config.ConfigFile of the client and pushes a
// changed status key to the gateway.
//
// Usage:
//
//	c, err := fluxer.New(cfg,
//	    presencewatcher.WithPresenceWatcher(presencewatcher.Config{
//	        RetryInterval: 2 * time.Second,
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithPresenceWatcher(cfg Config) fluxer.Option {
	return fluxer.WithPlugin(New(cfg))
}

// WithDefaultPresenceWatcher returns a fluxer Option that enables presence
// hot reload with default settings (retry every 2s, debounce 100ms).
func WithDefaultPresenceWatcher() fluxer.Option {
	return WithPresenceWatcher(DefaultConfig())
}
