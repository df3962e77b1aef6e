package client

import (
	"context"
	"fmt"
	"iter"

	"go-cache-interceptor/internal/emptyresponse"
	"go-cache-interceptor/internal/models"
	"go-cache-interceptor/internal/utils"
)

// ErrNoResponse is returned by Single when the call completed without a value
var ErrNoResponse = models.NewInternalStateError()

// Single runs call in single-result mode and returns its value. Without a
// decoder the body is decoded as JSON into T.
func Single[T any](ctx context.Context, c *Client, call Call) (T, error) {
	var zero T
	call = typedCall[T](call, models.ModeSingle)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	emission, ok := <-c.Execute(ctx, call)
	if !ok {
		return zero, ErrNoResponse
	}
	if emission.Err != nil {
		return zero, emission.Err
	}
	return as[T](emission.Response)
}

// Stream runs call in streaming mode. Iteration stops after the first error;
// breaking out of the loop cancels the call.
func Stream[T any](ctx context.Context, c *Client, call Call) iter.Seq2[T, error] {
	call = typedCall[T](call, models.ModeStream)

	return func(yield func(T, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for emission := range c.Execute(ctx, call) {
			if emission.Err != nil {
				var zero T
				yield(zero, emission.Err)
				return
			}
			value, err := as[T](emission.Response)
			if !yield(value, err) || err != nil {
				return
			}
		}
	}
}

// Complete runs call in completion-only mode, discarding any value. A
// ResponseType set on call is kept, it is the default target of Invalidate
// and Clear.
func Complete(ctx context.Context, c *Client, call Call) error {
	call.Mode = models.ModeCompletion
	if call.ResponseType == "" {
		call.ResponseType = emptyresponse.CompletionType
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for emission := range c.Execute(ctx, call) {
		if emission.Err != nil {
			return emission.Err
		}
	}
	return nil
}

func typedCall[T any](call Call, mode models.ConsumptionMode) Call {
	call.Mode = mode
	if call.ResponseType == "" {
		call.ResponseType = models.ResponseTypeOf[T]()
	}
	if call.Decode == nil {
		call.Decode = utils.JSONDecoder[T]()
	}
	return call
}

func as[T any](response any) (T, error) {
	value, ok := response.(T)
	if !ok {
		var zero T
		return zero, models.NewSerialisationError(fmt.Sprintf("unexpected response %T, want %s", response, models.ResponseTypeOf[T]()), nil)
	}
	return value, nil
}
