package actor

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// mailbox is a bounded, FIFO channel queue of envelopes.
// Send/TrySend may be called from any number of goroutines concurrently;
// Receive and Drain are for the owner's consumers only: a proxy's single
// consumer loop, or the workers of a ServiceWorkerPool sharing one mailbox.
//
// Thread safety mirrors a single-writer-lock design: Close takes the write
// half of mu, so it cannot race with a Send/TrySend holding the read half,
// which rules out a send-on-closed-channel panic without making every send
// pay for exclusive locking.
type mailbox[M Message, R any] struct {
	ch        chan envelope[M, R]
	closed    atomic.Bool
	mu        sync.RWMutex
	closeOnce sync.Once
	ownerCtx  context.Context

	// quit is closed before Close acquires the write half of mu, waking
	// any Send blocked on a full channel so it releases its read lock
	// instead of deadlocking against the closer.
	quit chan struct{}
}

func newMailbox[M Message, R any](
	ownerCtx context.Context, capacity int) *mailbox[M, R] {

	if capacity <= 0 {
		capacity = defaultMailboxCapacity
	}
	return &mailbox[M, R]{
		ch:       make(chan envelope[M, R], capacity),
		ownerCtx: ownerCtx,
		quit:     make(chan struct{}),
	}
}

// Send blocks until env is accepted, ctx is done, or the mailbox's owner
// context is done. It returns false in the latter two cases and whenever
// the mailbox has already been closed.
func (m *mailbox[M, R]) Send(ctx context.Context, env envelope[M, R]) bool {
	if ctx.Err() != nil || m.ownerCtx.Err() != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return false
	}

	select {
	case m.ch <- env:
		return true
	case <-ctx.Done():
		return false
	case <-m.ownerCtx.Done():
		return false
	case <-m.quit:
		return false
	}
}

// TrySend is the non-blocking counterpart to Send: it never waits for
// capacity, returning false immediately if the channel is full or closed.
func (m *mailbox[M, R]) TrySend(env envelope[M, R]) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return false
	}

	select {
	case m.ch <- env:
		return true
	default:
		return false
	}
}

// Receive yields envelopes as they arrive, stopping once ctx is done or the
// mailbox is closed and empty.
func (m *mailbox[M, R]) Receive(ctx context.Context) iter.Seq[envelope[M, R]] {
	return func(yield func(envelope[M, R]) bool) {
		for {
			if ctx.Err() != nil {
				return
			}

			select {
			case env, ok := <-m.ch:
				if !ok {
					return
				}
				if !yield(env) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close idempotently closes the mailbox. Subsequent Send/TrySend calls fail.
func (m *mailbox[M, R]) Close() {
	m.closeOnce.Do(func() {
		close(m.quit)

		m.mu.Lock()
		defer m.mu.Unlock()

		m.closed.Store(true)
		close(m.ch)
	})
}

// IsClosed reports whether Close has run, without blocking on mu.
func (m *mailbox[M, R]) IsClosed() bool {
	return m.closed.Load()
}

// Len reports how many envelopes are currently queued.
func (m *mailbox[M, R]) Len() int {
	return len(m.ch)
}

// Drain yields any envelopes left in the channel after Close. It is a
// no-op if called before closing.
func (m *mailbox[M, R]) Drain() iter.Seq[envelope[M, R]] {
	return func(yield func(envelope[M, R]) bool) {
		if !m.closed.Load() {
			return
		}
		for {
			select {
			case env, ok := <-m.ch:
				if !ok {
					return
				}
				if !yield(env) {
					return
				}
			default:
				return
			}
		}
	}
}
