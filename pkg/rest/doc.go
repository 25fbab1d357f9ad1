// Package rest executes calls against the Fluxer REST API.
//
// A [Route] template is compiled into a [CompiledRoute]; an [Action] pairs
// a compiled route with an optional JSON body and a [Parser] for the
// response. Actions run through a shared [Requester], which adds
// authentication, waits on the [RateLimiter] and logs failed responses.
//
//	msg, err := rest.NewAction(r, rest.SendMessage.Compile(channelID), parseMessage).
//		SetBody(payload)
//	if err != nil {
//		return err // *rest.SerializeError
//	}
//	msg.Queue(ctx, nil, nil)
//
// Errors returned by actions are one of [TransportError], [StatusError] or
// [DecodeError] and can be told apart with errors.As.
package rest
