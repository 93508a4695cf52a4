package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ActorBehavior is the logic an activation function hands back for a single
// actor identity. Receive is invoked once per dequeued message, in FIFO
// order, with a context merging the actor's own lifecycle with the
// caller's (for a call) and the Assistant capability handle the message
// handler uses to talk back to the rest of the system.
type ActorBehavior[M Message, R any] interface {
	Receive(ctx context.Context, msg M, asst *Assistant) fn.Result[R]
}

// Stoppable is an optional extension a behavior can implement to run
// cleanup once its proxy has stopped dequeuing and is tearing down.
type Stoppable interface {
	OnStop(ctx context.Context) error
}

// mergeContexts returns a context done when either ctx1 or ctx2 is done.
// It is derived from ctx1, so its Deadline and values are ctx1's; ctx2
// ending cancels it. It is used to give a call
// handler a context that respects both the actor's own shutdown and the
// caller's cancellation/deadline.
func mergeContexts(
	ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {

	merged, cancel := context.WithCancel(ctx1)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-merged.Done():
		case <-stop:
		}
	}()

	var once sync.Once
	return merged, func() {
		once.Do(func() { close(stop) })
		cancel()
	}
}
