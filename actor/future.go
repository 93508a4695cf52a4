package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Future represents the result of an asynchronous call. Consumers either
// block on Await, chain a transformation with ThenApply, or register a
// callback with OnComplete.
type Future[T any] interface {
	// Await blocks until the result is available or ctx is done, in
	// which case it returns fn.Err(ctx.Err()).
	Await(ctx context.Context) fn.Result[T]

	// ThenApply returns a new Future whose value is fn produced from
	// this Future's value, once available.
	ThenApply(ctx context.Context, fn func(T) T) Future[T]

	// OnComplete invokes fn with the result as soon as it is ready, or
	// with fn.Err(ctx.Err()) if ctx is done first. fn runs on its own
	// goroutine.
	OnComplete(ctx context.Context, fn func(fn.Result[T]))
}

// Promise is the write side of a Future: exactly one Complete call wins.
type Promise[T any] interface {
	Future() Future[T]
	Complete(result fn.Result[T]) bool
}

// channelPromise is a one-shot, channel-backed Promise/Future pair, the
// response sink carried inside a call envelope.
type channelPromise[T any] struct {
	ch   chan fn.Result[T]
	once sync.Once
}

// NewPromise creates a fresh, uncompleted Promise[T].
func NewPromise[T any]() Promise[T] {
	return &channelPromise[T]{ch: make(chan fn.Result[T], 1)}
}

func (p *channelPromise[T]) Future() Future[T] {
	return &channelFuture[T]{p: p}
}

func (p *channelPromise[T]) Complete(result fn.Result[T]) bool {
	completed := false
	p.once.Do(func() {
		p.ch <- result
		completed = true
	})
	return completed
}

type channelFuture[T any] struct {
	p *channelPromise[T]
}

func (f *channelFuture[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case result := <-f.p.ch:
		return result
	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

func (f *channelFuture[T]) ThenApply(
	ctx context.Context, apply func(T) T) Future[T] {

	next := NewPromise[T]()
	go func() {
		result := f.Await(ctx)
		val, err := result.Unpack()
		if err != nil {
			next.Complete(fn.Err[T](err))
			return
		}
		next.Complete(fn.Ok(apply(val)))
	}()

	return next.Future()
}

func (f *channelFuture[T]) OnComplete(
	ctx context.Context, cb func(fn.Result[T])) {

	go cb(f.Await(ctx))
}
