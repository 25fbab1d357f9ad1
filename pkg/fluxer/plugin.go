package fluxer

import "context"

// Plugin extends a Client. Plugins are initialized in registration order
// by Start and shut down in reverse order by Stop.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called from Start. ctx is cancelled by Stop.
	// Returning an error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	Client     *Client
	ConfigFile string
	Logger     Logger
}
