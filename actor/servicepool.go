package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"
)

type concurrencyKind uint8

const (
	concurrencyFixed concurrencyKind = iota
	concurrencyCoreCount
	concurrencyUnlimited
)

// ConcurrencyMode selects how a ServiceWorkerPool fans incoming messages
// out across workers. There is no ordering guarantee across messages under
// any mode; callers needing order route to an actor instead.
type ConcurrencyMode struct {
	kind concurrencyKind
	n    int
}

// Fixed runs exactly n long-lived workers sharing one mailbox.
func Fixed(n int) ConcurrencyMode {
	return ConcurrencyMode{kind: concurrencyFixed, n: n}
}

// CoreCount runs runtime.NumCPU() long-lived workers sharing one mailbox.
func CoreCount() ConcurrencyMode {
	return ConcurrencyMode{kind: concurrencyCoreCount}
}

// Unlimited spawns one goroutine per dequeued message with no cap beyond
// the shared mailbox's own backpressure.
func Unlimited() ConcurrencyMode {
	return ConcurrencyMode{kind: concurrencyUnlimited}
}

// String implements fmt.Stringer for log fields and stats output.
func (c ConcurrencyMode) String() string {
	switch c.kind {
	case concurrencyFixed:
		return fmt.Sprintf("fixed(%d)", c.workerCount())
	case concurrencyCoreCount:
		return fmt.Sprintf("cores(%d)", c.workerCount())
	case concurrencyUnlimited:
		return "unlimited"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a ConcurrencyMode as its String form so stats
// snapshots serialize to something readable instead of an empty object.
func (c ConcurrencyMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c ConcurrencyMode) workerCount() int {
	switch c.kind {
	case concurrencyFixed:
		if c.n <= 0 {
			return 1
		}
		return c.n
	case concurrencyCoreCount:
		return runtime.NumCPU()
	default:
		return 0
	}
}

// serviceFactory builds the (typically stateless, concurrency-safe)
// behavior instance workers share. It is called once per pool regardless
// of concurrency mode and collapsed to a single shared instance since pool
// workers have no individual identity to differentiate on.
type serviceFactory[M Message, R any] func(workerIdx int) ActorBehavior[M, R]

// ServiceWorkerPool is the identity-less counterpart to ActorManager: a
// single shared mailbox fanned out across a pool of workers with no FIFO
// guarantee across the whole pool.
type ServiceWorkerPool[M Message, R any] struct {
	key  ServiceTypeKey
	mode ConcurrencyMode

	mbox       *mailbox[M, R]
	behavior   ActorBehavior[M, R]
	asst       *Assistant
	deadLetter deadLetterSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shuttingDown atomic.Bool
	inflight     atomic.Int64
}

func newServiceWorkerPool[M Message, R any](
	sys *System, key ServiceTypeKey, mode ConcurrencyMode,
	factory serviceFactory[M, R], deadLetter deadLetterSink,
	mailboxCap int) *ServiceWorkerPool[M, R] {

	ctx, cancel := context.WithCancel(context.Background())

	pool := &ServiceWorkerPool[M, R]{
		key:        key,
		mode:       mode,
		mbox:       newMailbox[M, R](ctx, mailboxCap),
		deadLetter: deadLetter,
		ctx:        ctx,
		cancel:     cancel,
	}
	pool.asst = newAssistant(sys, fmt.Sprintf("service:%s", key), func() {
		log.DebugS(ctx, "stop_self is a no-op for a shared service worker",
			"service", string(key))
	})
	pool.behavior = factory(0)

	switch mode.kind {
	case concurrencyUnlimited:
		pool.wg.Add(1)
		go pool.dispatchUnlimited()
	default:
		n := mode.workerCount()
		for i := 0; i < n; i++ {
			pool.wg.Add(1)
			go pool.worker(i)
		}
	}

	return pool
}

// enqueue places msg on the pool's shared mailbox.
func (p *ServiceWorkerPool[M, R]) enqueue(
	ctx context.Context, msg M, promise Promise[R], blocking bool) EnqueueOutcome {

	if p.shuttingDown.Load() {
		failPromise(envelope[M, R]{promise: promise}, ErrShuttingDown)
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
		return Accepted
	}

	if p.shuttingDown.Load() {
		failPromise(env, ErrTargetEnding)
		return RejectedEnding
	}
	failPromise(env, ErrMailboxFull)
	return RejectedFull
}

func (p *ServiceWorkerPool[M, R]) worker(idx int) {
	defer p.wg.Done()

	for env := range p.mbox.Receive(p.ctx) {
		if env.kind != kindUserMessage {
			continue
		}
		p.invoke(env)
	}

	p.drainRemaining()
}

func (p *ServiceWorkerPool[M, R]) dispatchUnlimited() {
	defer p.wg.Done()

	var workers sync.WaitGroup
	for env := range p.mbox.Receive(p.ctx) {
		if env.kind != kindUserMessage {
			continue
		}
		workers.Add(1)
		go func(env envelope[M, R]) {
			defer workers.Done()
			p.invoke(env)
		}(env)
	}
	workers.Wait()

	p.drainRemaining()
}

func (p *ServiceWorkerPool[M, R]) invoke(env envelope[M, R]) {
	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	processCtx := p.ctx
	var cancelMerge context.CancelFunc
	if env.promise != nil && env.callerCtx != nil {
		processCtx, cancelMerge = mergeContexts(p.ctx, env.callerCtx)
	}

	res, panicked := p.safeInvoke(processCtx, env.message)
	if cancelMerge != nil {
		cancelMerge()
	}

	if panicked {
		failPromise(env, ErrPoisoned)
		p.routeDeadLetter(env)
		return
	}
	if env.promise != nil {
		env.promise.Complete(res)
	}
}

func (p *ServiceWorkerPool[M, R]) safeInvoke(
	ctx context.Context, msg M) (result fn.Result[R], panicked bool) {

	defer func() {
		if r := recover(); r != nil {
			log.ErrorS(p.ctx, "service handler panicked", nil, "service",
				string(p.key), "panic", fmt.Sprint(r))
			panicked = true
		}
	}()

	result = p.behavior.Receive(ctx, msg, p.asst)
	return result, false
}

func (p *ServiceWorkerPool[M, R]) routeDeadLetter(env envelope[M, R]) {
	if p.deadLetter == nil || env.kind != kindUserMessage {
		return
	}
	p.deadLetter.tellDeadLetter(env.message)
}

func (p *ServiceWorkerPool[M, R]) drainRemaining() {
	for env := range p.mbox.Drain() {
		failPromise(env, ErrCancelled)
		p.routeDeadLetter(env)
	}
}

// requestStop requests every worker to stop accepting new messages.
func (p *ServiceWorkerPool[M, R]) requestStop() {
	if !p.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	p.mbox.Close()
}

// drainAll implements the drainer interface for System.Stop.
func (p *ServiceWorkerPool[M, R]) drainAll(ctx context.Context) error {
	p.requestStop()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PoolStats summarizes one ServiceWorkerPool for System.Stats.
type PoolStats struct {
	Key          ServiceTypeKey
	Mode         ConcurrencyMode
	ShuttingDown bool
	Inflight     int64
	QueueDepth   int
}

func (p *ServiceWorkerPool[M, R]) snapshot() any {
	return p.stats()
}

func (p *ServiceWorkerPool[M, R]) stats() PoolStats {
	return PoolStats{
		Key:          p.key,
		Mode:         p.mode,
		ShuttingDown: p.shuttingDown.Load(),
		Inflight:     p.inflight.Load(),
		QueueDepth:   p.mbox.Len(),
	}
}
