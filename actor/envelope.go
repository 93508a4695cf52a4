package actor

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// envelopeKind distinguishes the three control variants a mailbox can carry:
// ordinary user traffic, a cooperative stop request, and an end-of-life
// signal. Only the first two are placed on a mailbox by this package; a
// consumer that dequeues an end signal skips it.
type envelopeKind uint8

const (
	kindUserMessage envelopeKind = iota
	kindStopRequest
	kindEndSignal
)

// envelope is the type-erased carrier placed on a mailbox channel. message
// is only meaningful for kindUserMessage; promise is non-nil only for a
// call ("ask"), giving the envelope an optional one-shot response sink.
type envelope[M Message, R any] struct {
	kind      envelopeKind
	message   M
	promise   Promise[R]
	callerCtx context.Context
}

func userEnvelope[M Message, R any](
	callerCtx context.Context, msg M, promise Promise[R]) envelope[M, R] {

	return envelope[M, R]{
		kind:      kindUserMessage,
		message:   msg,
		promise:   promise,
		callerCtx: callerCtx,
	}
}

func stopEnvelope[M Message, R any]() envelope[M, R] {
	return envelope[M, R]{kind: kindStopRequest}
}

func endEnvelope[M Message, R any]() envelope[M, R] {
	return envelope[M, R]{kind: kindEndSignal}
}

// failPromise completes env's response sink, if any, with err. It is used
// on the drain and poison paths where a message could never be handled.
func failPromise[M Message, R any](env envelope[M, R], err error) {
	if env.promise == nil {
		return
	}
	env.promise.Complete(fn.Err[R](err))
}
