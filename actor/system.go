package actor

import (
	"context"
	"sync"
	"sync/atomic"
)

// SystemConfig configures a System. Built with DefaultSystemConfig plus
// functional options.
type SystemConfig struct {
	DeadLetterMailboxCapacity int
}

// DefaultSystemConfig returns the defaults used when a caller does not
// override them.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{DeadLetterMailboxCapacity: defaultMailboxCapacity}
}

// SystemOption customizes a SystemConfig.
type SystemOption func(*SystemConfig)

// WithDeadLetterMailboxCapacity overrides the capacity of the System-wide
// dead-letter pool's mailbox.
func WithDeadLetterMailboxCapacity(n int) SystemOption {
	return func(c *SystemConfig) { c.DeadLetterMailboxCapacity = n }
}

// drainer is the common shutdown surface every ActorManager and
// ServiceWorkerPool registered with a System implements, letting the
// System drain all of them without needing their generic type parameters.
type drainer interface {
	drainAll(ctx context.Context) error
	snapshot() any
}

// System is the top-level façade (the SystemDirector): it lazily creates
// and owns every ActorManager and ServiceWorkerPool addressed through it,
// owns the Subscription Broker, and performs two-phase shutdown across
// everything it has created.
type System struct {
	mu       sync.Mutex
	managers map[ActorTypeKey]any
	pools    map[ServiceTypeKey]any
	drainers []drainer

	broker *SubscriptionBroker

	deadLetterPool *ServiceWorkerPool[Message, struct{}]
	deadLetters    *deadLetterBehavior

	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewSystem builds a ready-to-use System, including its dead-letter pool
// and broker.
func NewSystem(opts ...SystemOption) *System {
	cfg := DefaultSystemConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sys := &System{
		managers: make(map[ActorTypeKey]any),
		pools:    make(map[ServiceTypeKey]any),
		broker:   newSubscriptionBroker(),
	}

	sys.deadLetters = &deadLetterBehavior{sys: sys}
	sys.deadLetterPool = newServiceWorkerPool[Message, struct{}](
		sys, ServiceTypeKey("system.dead_letters"), Fixed(1),
		func(int) ActorBehavior[Message, struct{}] { return sys.deadLetters },
		nil, cfg.DeadLetterMailboxCapacity,
	)

	return sys
}

func (sys *System) deadLetterSink() deadLetterSink {
	return deadLetterAdapter{pool: sys.deadLetterPool}
}

// Broker returns the System's Subscription Broker.
func (sys *System) Broker() *SubscriptionBroker {
	return sys.broker
}

// DeadLetterCount returns how many envelopes have been routed to the
// System-wide dead-letter pool over its lifetime.
func (sys *System) DeadLetterCount() uint64 {
	return sys.deadLetters.Count()
}

// managerFor returns the ActorManager for typeKey, creating it under a
// short critical section on first use. Activation of any individual actor
// never happens while sys.mu is held; only the registry lookup/insert does.
func managerFor[ID comparable, M Message, R any](
	sys *System, typeKey ActorTypeKey, activate activateFunc[ID, M, R],
	opts ...ManagerOption) (*ActorManager[ID, M, R], error) {

	sys.mu.Lock()
	defer sys.mu.Unlock()

	if sys.stopped.Load() {
		return nil, ErrShuttingDown
	}

	if existing, ok := sys.managers[typeKey]; ok {
		mgr, ok := existing.(*ActorManager[ID, M, R])
		if !ok {
			return nil, ErrTypeMismatch
		}
		return mgr, nil
	}

	mgr := newActorManager[ID, M, R](
		sys, typeKey, activate, sys.deadLetterSink(), opts...)
	sys.managers[typeKey] = mgr
	sys.drainers = append(sys.drainers, mgr)

	return mgr, nil
}

// poolFor returns the ServiceWorkerPool for key, creating it on first use.
func poolFor[M Message, R any](
	sys *System, key ServiceTypeKey, mode ConcurrencyMode,
	factory serviceFactory[M, R], mailboxCap int) (*ServiceWorkerPool[M, R], error) {

	sys.mu.Lock()
	defer sys.mu.Unlock()

	if sys.stopped.Load() {
		return nil, ErrShuttingDown
	}

	if existing, ok := sys.pools[key]; ok {
		pool, ok := existing.(*ServiceWorkerPool[M, R])
		if !ok {
			return nil, ErrTypeMismatch
		}
		return pool, nil
	}

	pool := newServiceWorkerPool[M, R](
		sys, key, mode, factory, sys.deadLetterSink(), mailboxCap)
	sys.pools[key] = pool
	sys.drainers = append(sys.drainers, pool)

	return pool, nil
}

// PreloadService eagerly creates the ServiceWorkerPool backing kind instead
// of waiting for its first message, so its workers are already running
// when traffic starts.
func PreloadService[M Message, R any](sys *System, kind ServiceKind[M, R]) error {
	_, err := kind.pool(sys)
	return err
}

// Stop begins the first phase of shutdown: no further managers or pools
// can be created, and no manager or pool will accept a message enqueued
// after this call observes it. It does not wait for in-flight work to
// finish; call WaitUntilStopped for that.
func (sys *System) Stop() {
	sys.stopOnce.Do(func() {
		sys.stopped.Store(true)
	})
}

// WaitUntilStopped runs the second shutdown phase: it calls Stop, then
// concurrently drains every ActorManager and ServiceWorkerPool ever
// created through this System, waiting for all of them or for ctx to
// expire, whichever comes first. The built-in dead-letter pool drains
// last, after every component that might still route into it has ended.
func (sys *System) WaitUntilStopped(ctx context.Context) error {
	sys.Stop()

	sys.mu.Lock()
	drainers := append([]drainer(nil), sys.drainers...)
	sys.mu.Unlock()

	errCh := make(chan error, len(drainers))
	for _, d := range drainers {
		d := d
		go func() { errCh <- d.drainAll(ctx) }()
	}

	var firstErr error
	for range drainers {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := sys.deadLetterPool.drainAll(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Stats is a point-in-time snapshot of every actor manager and service
// pool a System has created.
type Stats struct {
	Actors   []ManagerStats
	Services []PoolStats
}

// Stats returns a snapshot across every ActorManager and ServiceWorkerPool
// this System has created so far.
func (sys *System) Stats() Stats {
	sys.mu.Lock()
	drainers := append([]drainer(nil), sys.drainers...)
	sys.mu.Unlock()

	var out Stats
	for _, d := range drainers {
		switch s := d.snapshot().(type) {
		case ManagerStats:
			out.Actors = append(out.Actors, s)
		case PoolStats:
			out.Services = append(out.Services, s)
		}
	}
	out.Services = append(out.Services, sys.deadLetterPool.stats())
	return out
}
