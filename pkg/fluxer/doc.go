// Package fluxer provides an embeddable client for the Fluxer realtime
// gateway and REST API.
//
// # Basic Usage
//
//	client, err := fluxer.New(fluxer.Config{Token: os.Getenv("FLUXER_TOKEN")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.AddEventListener(&events.Adapter{
//	    MessageCreated: func(e *events.MessageCreated) error {
//	        if e.Message.Content != "!ping" {
//	            return nil
//	        }
//	        reply, err := e.Message.Reply("Pong!")
//	        if err != nil {
//	            return err
//	        }
//	        reply.Queue(context.Background(), nil, nil)
//	        return nil
//	    },
//	})
//
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// # Events
//
// Listeners run synchronously on the gateway read goroutine, in
// registration order. A listener that returns an error or panics is
// logged and skipped; later listeners still run. Listeners should hand
// long work to actions (Queue, Submit) instead of blocking.
//
// # Actions
//
// Entity methods return [rest.Action] values. An action does nothing
// until it is executed with Complete (blocking), Submit (future), Queue
// (callbacks) or their delayed variants. Failures of queued actions
// without a failure callback are logged.
//
// # Lifecycle States
//
// A Client can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Client.Status]
// to query the lifecycle and [Client.GatewayState] for the connection.
//
// # Plugins
//
//	import "github.com/why-shiro/J4Fluxer/plugins/presencewatcher"
//
//	client, err := fluxer.New(cfg,
//	    presencewatcher.WithPresenceWatcher(presencewatcher.DefaultConfig()),
//	)
package fluxer
