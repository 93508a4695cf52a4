package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ManagerConfig configures an ActorManager. Built with DefaultManagerConfig
// plus functional options, following the package's usual Config/
// DefaultConfig idiom.
type ManagerConfig struct {
	MailboxCapacity int
	IdleTTL         time.Duration
	SweepInterval   time.Duration
}

// DefaultManagerConfig returns the defaults used when a caller does not
// override them: a 150,000-deep mailbox, a five minute idle TTL, and a
// thirty second sweep interval.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MailboxCapacity: defaultMailboxCapacity,
		IdleTTL:         defaultIdleTTL,
		SweepInterval:   defaultEvictionSweepInterval,
	}
}

// ManagerOption customizes a ManagerConfig.
type ManagerOption func(*ManagerConfig)

// WithMailboxCapacity overrides the bounded capacity given to every proxy
// this manager creates.
func WithMailboxCapacity(n int) ManagerOption {
	return func(c *ManagerConfig) { c.MailboxCapacity = n }
}

// WithIdleTTL overrides how long a proxy may sit idle before the manager's
// sweep requests it stop.
func WithIdleTTL(d time.Duration) ManagerOption {
	return func(c *ManagerConfig) { c.IdleTTL = d }
}

// WithSweepInterval overrides how often the manager scans its registry for
// idle proxies to reclaim.
func WithSweepInterval(d time.Duration) ManagerOption {
	return func(c *ManagerConfig) { c.SweepInterval = d }
}

// ActorManager owns every live ActorProxy for one ActorTypeKey, creating
// them lazily on first send and reclaiming them once idle or stopped.
type ActorManager[ID comparable, M Message, R any] struct {
	typeKey  ActorTypeKey
	sys      *System
	activate activateFunc[ID, M, R]
	cfg      ManagerConfig

	deadLetter deadLetterSink

	mu      sync.Mutex
	proxies map[ID]*proxy[ID, M, R]

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	shuttingDown atomic.Bool
}

func newActorManager[ID comparable, M Message, R any](
	sys *System, typeKey ActorTypeKey, activate activateFunc[ID, M, R],
	deadLetter deadLetterSink, opts ...ManagerOption) *ActorManager[ID, M, R] {

	cfg := DefaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &ActorManager[ID, M, R]{
		typeKey:    typeKey,
		sys:        sys,
		activate:   activate,
		cfg:        cfg,
		deadLetter: deadLetter,
		proxies:    make(map[ID]*proxy[ID, M, R]),
		ctx:        ctx,
		cancel:     cancel,
	}

	go m.sweepLoop()

	return m
}

// route delivers msg to the proxy for id, creating it on first use. It is
// the single call path both Send and Call funnel through.
func (m *ActorManager[ID, M, R]) route(
	ctx context.Context, id ID, msg M, promise Promise[R],
	blocking bool) EnqueueOutcome {

	if m.shuttingDown.Load() {
		failPromise(envelope[M, R]{promise: promise}, ErrShuttingDown)
		return RejectedEnding
	}

	p := m.getOrCreate(id)
	if p == nil {
		failPromise(envelope[M, R]{promise: promise}, ErrShuttingDown)
		return RejectedEnding
	}
	return p.enqueue(ctx, msg, promise, blocking)
}

// getOrCreate returns the live proxy for id, creating it under a short
// critical section if absent or if the previous occupant has fully ended.
// Activation of a freshly created proxy always runs outside of m.mu. The
// shutdown flag is re-checked under the lock so no proxy can slip into the
// registry after drainAll has taken its snapshot; such a send returns nil.
func (m *ActorManager[ID, M, R]) getOrCreate(id ID) *proxy[ID, M, R] {
	m.mu.Lock()
	if m.shuttingDown.Load() {
		existing := m.proxies[id]
		m.mu.Unlock()
		return existing
	}
	if existing, ok := m.proxies[id]; ok && existing.snapshotState() != StateEnded {
		m.mu.Unlock()
		return existing
	}

	addr := Address[ID]{Type: m.typeKey, ID: id}
	p := newProxy[ID, M, R](m.ctx, addr, m.cfg.MailboxCapacity, m.deadLetter)
	m.proxies[id] = p
	m.mu.Unlock()

	p.run(m.sys, m.activate, &m.wg, func() { m.reclaim(id, p) })

	return p
}

// reclaim removes id's slot once its proxy has reached Ended, but only if
// no newer proxy has already replaced it.
func (m *ActorManager[ID, M, R]) reclaim(id ID, p *proxy[ID, M, R]) {
	m.mu.Lock()
	if cur, ok := m.proxies[id]; ok && cur == p {
		delete(m.proxies, id)
	}
	m.mu.Unlock()
}

func (m *ActorManager[ID, M, R]) sweepLoop() {
	interval := m.cfg.SweepInterval
	if interval <= 0 {
		interval = defaultEvictionSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle(time.Now())
		case <-m.ctx.Done():
			return
		}
	}
}

// evictIdle requests a stop on every Running proxy that has not received a
// message within the configured idle TTL.
func (m *ActorManager[ID, M, R]) evictIdle(now time.Time) {
	ttl := m.cfg.IdleTTL
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	var toStop []*proxy[ID, M, R]
	for _, p := range m.proxies {
		if p.snapshotState() == StateRunning && now.Sub(p.idleSince()) > ttl {
			toStop = append(toStop, p)
		}
	}
	m.mu.Unlock()

	for _, p := range toStop {
		log.DebugS(m.ctx, "evicting idle actor", "addr", p.addr.String())
		p.requestStop()
	}
}

// drainAll requests every live proxy stop, waits for all of them (and the
// manager's own sweeper) to finish, and returns ctx.Err() if ctx expires
// first. It implements the drainer interface for System.Stop.
func (m *ActorManager[ID, M, R]) drainAll(ctx context.Context) error {
	m.shuttingDown.Store(true)

	m.mu.Lock()
	proxies := make([]*proxy[ID, M, R], 0, len(m.proxies))
	for _, p := range m.proxies {
		proxies = append(proxies, p)
	}
	m.mu.Unlock()

	for _, p := range proxies {
		p.requestStop()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProxyStats is one live identity's entry in a ManagerStats snapshot.
type ProxyStats struct {
	ID           string
	State        ProxyState
	MailboxDepth int
}

// ManagerStats summarizes one ActorManager for System.Stats.
type ManagerStats struct {
	Type         ActorTypeKey
	LiveProxies  int
	ShuttingDown bool
	Proxies      []ProxyStats
}

func (m *ActorManager[ID, M, R]) snapshot() any {
	return m.stats()
}

func (m *ActorManager[ID, M, R]) stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	proxies := make([]ProxyStats, 0, len(m.proxies))
	for _, p := range m.proxies {
		state, depth := p.stateSnapshot()
		proxies = append(proxies, ProxyStats{
			ID:           p.addr.String(),
			State:        state,
			MailboxDepth: depth,
		})
	}

	return ManagerStats{
		Type:         m.typeKey,
		LiveProxies:  len(m.proxies),
		ShuttingDown: m.shuttingDown.Load(),
		Proxies:      proxies,
	}
}
