package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/why-shiro/J4Fluxer/internal/cliconfig"
	"github.com/why-shiro/J4Fluxer/pkg/events"
	"github.com/why-shiro/J4Fluxer/pkg/fluxer"
	fluxlog "github.com/why-shiro/J4Fluxer/pkg/log"
	"github.com/why-shiro/J4Fluxer/plugins/presencewatcher"
)

const longHelp = `Connect a bot account to the Fluxer realtime gateway.

The client identifies with the given token, keeps the session alive with
heartbeats, resumes after dropped connections and logs every gateway
event. Messages equal to the ping command are answered with "Pong!".

Configuration is read from the TOML file, then FLUXER_* environment
variables, then flags. Editing the status key of the config file while
the client runs updates the bot's presence.`

var exampleUsage = strings.TrimSpace(`
  fluxer --token <bot-token>
  fluxer --config $HOME/.fluxer/config.toml --status idle --log-level debug
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := fluxlog.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
	log := logger.Logger()

	root := &cobra.Command{
		Use:          "fluxer",
		Short:        "Run a Fluxer gateway bot",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else {
				cfgFile = ""
			}

			// FLUXER_* overrides the file, flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			level, err := fluxlog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger = fluxlog.NewZerologAdapter(os.Stderr, level)
			log = logger.Logger()
			log.Info().Interface("config", cfg.Masked()).Str("file", cfgFile).Msg("configuration")

			client, err := fluxer.New(cfg.ClientConfig(cfgFile),
				fluxer.WithLogger(logger),
				fluxer.WithStateHandler(fluxer.StateHandlerFunc(func(e fluxer.StateChangeEvent) {
					log.Debug().Str("from", e.Previous.String()).Str("to", e.Current.String()).Msg("client state")
				})),
				presencewatcher.WithDefaultPresenceWatcher(),
			)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			defer client.Close()

			client.AddEventListener(newBotListener(cfg.PingCommand, log))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := client.Start(ctx); err != nil {
				return fmt.Errorf("start client: %w", err)
			}

			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(250 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := client.Status()
						if status == fluxer.StateStopped || status == fluxer.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if client.Status() == fluxer.StateCrashed {
					log.Error().Msg("gateway session ended")
				}
			}

			if err := client.Stop(); err != nil {
				return fmt.Errorf("stop client: %w", err)
			}
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.fluxer/config.toml)")
	root.Flags().StringVar(&cfg.Token, "token", cfg.Token, "bot token (the Bot prefix is added when missing)")
	root.Flags().StringVar(&cfg.Status, "status", cfg.Status, "initial presence: online, idle, dnd, invisible or offline")
	root.Flags().IntVar(&cfg.Intents, "intents", cfg.Intents, "gateway intents bitfield")

	root.Flags().StringVar(&cfg.GatewayURL, "gateway-url", cfg.GatewayURL, "gateway websocket URL")
	root.Flags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "REST API base URL")
	if err := root.Flags().MarkHidden("api-url"); err != nil {
		log.Info().Err(err).Msg("failed to hide api-url flag")
	}

	root.Flags().BoolVar(&cfg.NoReconnect, "no-reconnect", cfg.NoReconnect, "exit on the first gateway close instead of resuming")
	root.Flags().BoolVar(&cfg.RequireHeartbeatAck, "require-heartbeat-ack", cfg.RequireHeartbeatAck, "reconnect when a heartbeat is not acknowledged")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "REST request timeout")
	root.Flags().Float64Var(&cfg.GlobalRateLimit, "global-rate-limit", cfg.GlobalRateLimit, "REST requests per second across all routes")
	root.Flags().Float64Var(&cfg.RouteRateLimit, "route-rate-limit", cfg.RouteRateLimit, "REST requests per second per route")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace, debug, info, warn, error or off")
	root.Flags().StringVar(&cfg.PingCommand, "ping-command", cfg.PingCommand, "message answered with Pong!")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("fluxer")
		os.Exit(1)
	}
}

// newBotListener logs every event and answers the ping command.
func newBotListener(pingCommand string, log zerolog.Logger) *events.Adapter {
	return &events.Adapter{
		Any: func(e events.Event) error {
			log.Debug().Str(fluxlog.KeyEventType, e.Type()).Msg("event")
			return nil
		},
		Ready: func(e *events.Ready) error {
			log.Info().Str("user", e.Username).Str("session_id", e.SessionID).Msg("ready")
			return nil
		},
		MessageCreated: func(e *events.MessageCreated) error {
			if e.Message.Content != pingCommand {
				return nil
			}
			action, err := e.Channel().SendMessage("Pong!")
			if err != nil {
				return err
			}
			action.Queue(context.Background(), nil, func(err error) {
				log.Warn().Err(err).Str("channel_id", e.Message.ChannelID).Msg("pong failed")
			})
			return nil
		},
		GuildJoined: func(e *events.GuildJoined) error {
			log.Info().Str(fluxlog.KeyGuildID, e.Guild.ID()).Str("name", e.Guild.Name()).Msg("guild joined")
			return nil
		},
	}
}
