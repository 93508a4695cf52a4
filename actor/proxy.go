package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// activateFunc builds the behavior for one actor identity the first time
// it is addressed. It runs once, outside of any manager lock, on the
// proxy's own goroutine.
type activateFunc[ID comparable, M Message, R any] func(id ID, asst *Assistant) ActorBehavior[M, R]

// deadLetterSink receives messages a proxy could not deliver: anything
// still queued when it tears down.
type deadLetterSink interface {
	tellDeadLetter(msg Message)
}

// proxy is the ActorProxy: one mailbox and one activated behavior instance
// for a single (ActorTypeKey, identity) address, running its own
// FIFO-ordered consumer goroutine.
type proxy[ID comparable, M Message, R any] struct {
	addr Address[ID]

	mbox *mailbox[M, R]

	ctx    context.Context
	cancel context.CancelFunc

	state        atomic.Uint32
	lastActivity atomic.Int64

	behavior   ActorBehavior[M, R]
	asst       *Assistant
	deadLetter deadLetterSink
}

func newProxy[ID comparable, M Message, R any](
	parentCtx context.Context, addr Address[ID], mailboxCap int,
	deadLetter deadLetterSink) *proxy[ID, M, R] {

	ctx, cancel := context.WithCancel(parentCtx)

	p := &proxy[ID, M, R]{
		addr:       addr,
		mbox:       newMailbox[M, R](ctx, mailboxCap),
		ctx:        ctx,
		cancel:     cancel,
		deadLetter: deadLetter,
	}
	p.state.Store(uint32(StateStarting))
	p.touch()

	return p
}

func (p *proxy[ID, M, R]) touch() {
	p.lastActivity.Store(time.Now().UnixNano())
}

func (p *proxy[ID, M, R]) idleSince() time.Time {
	return time.Unix(0, p.lastActivity.Load())
}

func (p *proxy[ID, M, R]) snapshotState() ProxyState {
	return ProxyState(p.state.Load())
}

// stateSnapshot reports the proxy's lifecycle state together with its
// current mailbox depth, the unit of observability ManagerStats exposes
// per live identity.
func (p *proxy[ID, M, R]) stateSnapshot() (ProxyState, int) {
	return p.snapshotState(), p.mbox.Len()
}

// enqueue is the single entry point external senders use to place a
// message on this proxy's mailbox. It never blocks beyond ctx's lifetime
// and classifies the result per EnqueueOutcome.
func (p *proxy[ID, M, R]) enqueue(
	ctx context.Context, msg M, promise Promise[R], blocking bool) EnqueueOutcome {

	switch p.snapshotState() {
	case StateEnding, StateEnded:
		failPromise(envelope[M, R]{promise: promise}, ErrTargetEnding)
		return RejectedEnding
	}

	env := userEnvelope[M, R](ctx, msg, promise)

	var ok bool
	if blocking {
		ok = p.mbox.Send(ctx, env)
	} else {
		ok = p.mbox.TrySend(env)
	}

	if ok {
		p.touch()
		return Accepted
	}

	if p.snapshotState() == StateEnding || p.snapshotState() == StateEnded {
		failPromise(env, ErrTargetEnding)
		return RejectedEnding
	}

	failPromise(env, ErrMailboxFull)
	return RejectedFull
}

// requestStop asks the proxy to stop accepting new user messages and drain
// toward Ended once everything already queued ahead of the stop marker has
// been processed.
func (p *proxy[ID, M, R]) requestStop() {
	for {
		cur := ProxyState(p.state.Load())
		if cur == StateEnding || cur == StateEnded {
			return
		}
		if p.state.CompareAndSwap(uint32(cur), uint32(StateEnding)) {
			break
		}
	}

	// A full mailbox cannot take the stop marker, so close it outright:
	// the consumer drains whatever was already accepted, then tears down,
	// which is the same terminal sequence the marker would have produced.
	if !p.mbox.TrySend(stopEnvelope[M, R]()) {
		p.mbox.Close()
	}
}

// run activates the behavior and starts the consumer loop on a new
// goroutine. Activation happens outside of any manager lock; the manager
// only needs the lock long enough to insert this proxy's slot.
func (p *proxy[ID, M, R]) run(
	sys *System, activate activateFunc[ID, M, R], wg *sync.WaitGroup,
	onEnd func()) {

	if wg != nil {
		wg.Add(1)
	}

	go func() {
		if wg != nil {
			defer wg.Done()
		}
		defer onEnd()

		p.asst = newAssistant(sys, p.addr.String(), p.requestStop)

		behavior, panicked := p.activateSafely(activate)
		if panicked {
			p.poison(ErrPoisoned)
			return
		}
		p.behavior = behavior

		// A stop may have raced activation and already moved the state
		// to Ending; in that case stay there and let the consumer
		// drain whatever was accepted before tearing down.
		p.state.CompareAndSwap(uint32(StateStarting), uint32(StateRunning))

		log.DebugS(p.ctx, "actor activated", "addr", p.addr.String())

		p.consume()
	}()
}

func (p *proxy[ID, M, R]) activateSafely(
	activate activateFunc[ID, M, R]) (b ActorBehavior[M, R], panicked bool) {

	defer func() {
		if r := recover(); r != nil {
			log.ErrorS(p.ctx, "actor activation panicked", nil, "addr",
				p.addr.String(), "panic", fmt.Sprint(r))
			panicked = true
		}
	}()

	b = activate(p.addr.ID, p.asst)
	return b, false
}

// consume is the FIFO dequeue loop: one handler invocation awaited fully
// before the next envelope is taken, which is what gives a single address
// its ordering guarantee.
func (p *proxy[ID, M, R]) consume() {
	for env := range p.mbox.Receive(p.ctx) {
		switch env.kind {
		case kindStopRequest:
			p.mbox.Close()
			continue
		case kindEndSignal:
			continue
		}

		p.touch()

		processCtx := p.ctx
		var cancelMerge context.CancelFunc
		if env.promise != nil && env.callerCtx != nil {
			processCtx, cancelMerge = mergeContexts(p.ctx, env.callerCtx)
		}

		result, panicked := p.invoke(processCtx, env.message)
		if cancelMerge != nil {
			cancelMerge()
		}

		if panicked {
			failPromise(env, ErrPoisoned)
			p.routeDeadLetter(env)
			p.poison(ErrPoisoned)
			return
		}

		if env.promise != nil {
			env.promise.Complete(result)
		}
	}

	p.teardown()
}

func (p *proxy[ID, M, R]) invoke(
	ctx context.Context, msg M) (result fn.Result[R], panicked bool) {

	defer func() {
		if r := recover(); r != nil {
			log.ErrorS(p.ctx, "actor handler panicked", nil, "addr",
				p.addr.String(), "panic", fmt.Sprint(r))
			panicked = true
		}
	}()

	result = p.behavior.Receive(ctx, msg, p.asst)
	return result, false
}

// poison is the terminal path for a handler or activation panic: the
// mailbox is closed and drained without further processing, every pending
// call fails with ErrPoisoned, and the proxy moves directly to Ended. It
// is never restarted.
func (p *proxy[ID, M, R]) poison(cause error) {
	p.state.Store(uint32(StateEnding))
	p.cancel()
	p.mbox.Close()

	for env := range p.mbox.Drain() {
		failPromise(env, cause)
		p.routeDeadLetter(env)
	}

	p.state.Store(uint32(StateEnded))
	log.ErrorS(p.ctx, "actor poisoned", cause, "addr", p.addr.String())
}

func (p *proxy[ID, M, R]) teardown() {
	p.mbox.Close()

	drained := 0
	for env := range p.mbox.Drain() {
		drained++
		failPromise(env, ErrCancelled)
		p.routeDeadLetter(env)
	}

	if stoppable, ok := p.behavior.(Stoppable); ok {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := stoppable.OnStop(cctx); err != nil {
			log.WarnS(p.ctx, "actor OnStop failed", err, "addr",
				p.addr.String())
		}
		cancel()
	}

	p.cancel()
	p.state.Store(uint32(StateEnded))
	log.DebugS(p.ctx, "actor ended", "addr", p.addr.String(), "drained", drained)
}

func (p *proxy[ID, M, R]) routeDeadLetter(env envelope[M, R]) {
	if p.deadLetter == nil || env.kind != kindUserMessage {
		return
	}
	p.deadLetter.tellDeadLetter(env.message)
}
