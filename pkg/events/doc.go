// Package events defines the domain events produced from gateway frames
// and the dispatcher that delivers them to listeners.
//
// [Event] is a closed set: only the types in this package implement it.
// Listeners receive every event; use [Adapter] to handle only the
// variants you care about.
//
//	d := events.NewDispatcher(logger)
//	d.Register(&events.Adapter{
//		MessageCreated: func(e *events.MessageCreated) error {
//			log.Printf("%s: %s", e.Message.Author, e.Message.Content)
//			return nil
//		},
//	})
//
// Delivery is synchronous and in registration order. A listener that
// returns an error or panics is logged and skipped; later listeners still
// receive the event.
package events
