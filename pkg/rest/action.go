package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/why-shiro/J4Fluxer/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parser turns a 2xx response body into a result.
type Parser[T any] func(body []byte) (T, error)

// Void is the result type of actions whose response carries nothing.
type Void = struct{}

// JSON returns a parser that decodes the body into a T.
func JSON[T any]() Parser[T] {
	return func(body []byte) (T, error) {
		var v T
		err := json.Unmarshal(body, &v)
		return v, err
	}
}

// Discard is the parser of Void actions.
func Discard(body []byte) (Void, error) {
	return Void{}, nil
}

// Action is one remote call that has not run yet. It can be run blocking
// (Complete), in the background (Submit, Queue) or after a delay
// (SubmitAfter, QueueAfter). An Action is not modified by running it and
// may be run more than once.
type Action[T any] struct {
	requester *Requester
	route     CompiledRoute
	body      []byte
	parse     Parser[T]
}

// NewAction creates an action for route. A nil parse yields zero values.
func NewAction[T any](r *Requester, route CompiledRoute, parse Parser[T]) *Action[T] {
	return &Action[T]{
		requester: r,
		route:     route,
		parse:     parse,
	}
}

// SetBody returns a copy of a carrying v as its JSON body. Struct payloads
// are validated against their `validate` tags first. Validation and
// encoding failures are returned as *SerializeError.
func (a *Action[T]) SetBody(v any) (*Action[T], error) {
	if isStruct(v) {
		if err := validate.Struct(v); err != nil {
			return nil, &SerializeError{Err: err}
		}
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, &SerializeError{Err: err}
	}
	next := *a
	next.body = body
	return &next, nil
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}

// Route returns the compiled route.
func (a *Action[T]) Route() CompiledRoute { return a.route }

// Body returns the serialized body, or nil.
func (a *Action[T]) Body() []byte { return a.body }

// Complete runs the action and waits for its result.
//
// A 204 or empty body yields the zero value. Errors are *TransportError,
// *StatusError or *DecodeError.
func (a *Action[T]) Complete(ctx context.Context) (T, error) {
	var zero T
	if a.requester == nil {
		return zero, ErrNoRequester
	}

	resp, err := a.requester.Execute(ctx, a.route, a.body)
	if err != nil {
		return zero, err
	}
	if !resp.OK() {
		return zero, &StatusError{
			Route:      a.route.String(),
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 || a.parse == nil {
		return zero, nil
	}

	v, err := a.parse(resp.Body)
	if err != nil {
		return zero, &DecodeError{Route: a.route.String(), Err: err}
	}
	return v, nil
}

// Submit runs the action on a new goroutine.
func (a *Action[T]) Submit(ctx context.Context) *Future[T] {
	f := newFuture[T]()
	id := uuid.NewString()
	a.logger().Debug("action submitted",
		log.String(log.KeyActionID, id),
		log.String(log.KeyRoute, a.route.String()),
	)
	go func() {
		f.complete(a.Complete(ctx))
	}()
	return f
}

// Queue runs the action in the background and reports the outcome to the
// callbacks. Either may be nil; a failure with no onFailure is logged.
func (a *Action[T]) Queue(ctx context.Context, onSuccess func(T), onFailure func(error)) {
	id := uuid.NewString()
	go func() {
		v, err := a.Complete(ctx)
		if err != nil {
			a.fail(id, err, onFailure)
			return
		}
		if onSuccess != nil {
			onSuccess(v)
		}
	}()
}

// QueueAfter queues the action once delay has elapsed.
func (a *Action[T]) QueueAfter(ctx context.Context, delay time.Duration, onSuccess func(T), onFailure func(error)) {
	id := uuid.NewString()
	if a.requester == nil {
		a.fail(id, ErrNoRequester, onFailure)
		return
	}
	ok := a.requester.Scheduler().Schedule(delay,
		func() { a.Queue(ctx, onSuccess, onFailure) },
		func() { a.fail(id, ErrSchedulerStopped, onFailure) },
	)
	if !ok {
		a.fail(id, ErrSchedulerStopped, onFailure)
	}
}

// SubmitAfter submits the action once delay has elapsed.
func (a *Action[T]) SubmitAfter(ctx context.Context, delay time.Duration) *Future[T] {
	f := newFuture[T]()
	var zero T
	if a.requester == nil {
		f.complete(zero, ErrNoRequester)
		return f
	}
	ok := a.requester.Scheduler().Schedule(delay,
		func() {
			go func() { f.complete(a.Complete(ctx)) }()
		},
		func() { f.complete(zero, ErrSchedulerStopped) },
	)
	if !ok {
		f.complete(zero, ErrSchedulerStopped)
	}
	return f
}

func (a *Action[T]) fail(id string, err error, onFailure func(error)) {
	if onFailure != nil {
		onFailure(err)
		return
	}
	fields := []log.Field{
		log.String(log.KeyActionID, id),
		log.String(log.KeyRoute, a.route.String()),
		log.Err(err),
	}
	var se *StatusError
	if errors.As(err, &se) {
		fields = append(fields, log.Int(log.KeyStatus, se.StatusCode))
	}
	a.logger().Error("queued action failed", fields...)
}

func (a *Action[T]) logger() log.Logger {
	if a.requester == nil {
		return log.NewNoopLogger()
	}
	return a.requester.Logger()
}

// String describes the action for logs.
func (a *Action[T]) String() string {
	return fmt.Sprintf("Action[%s]", a.route)
}
