package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// identityMsg is a bare message carrying no payload, used by tests that
// only care about activation and delivery, not message content.
type identityMsg struct {
	BaseMessage
}

func (identityMsg) MessageType() string { return "test.identityMsg" }

// employeeState tags itself with the activation ordinal it was built with,
// so concurrent callers can confirm they all observed the same instance.
type employeeState struct {
	token int64
}

func (e *employeeState) Receive(
	_ context.Context, _ identityMsg, _ *Assistant) fn.Result[int64] {

	return fn.Ok(e.token)
}

// TestActivateOnce verifies that concurrent first sends to the same identity
// cause activate to run exactly once, and every caller observes the same
// instance.
func TestActivateOnce(t *testing.T) {
	t.Parallel()

	sys := NewSystem()

	var activations atomic.Int32
	activate := func(string, *Assistant) ActorBehavior[identityMsg, int64] {
		n := activations.Add(1)
		return &employeeState{token: int64(n)}
	}
	kind := NewActorKind[string, identityMsg, int64]("employee", activate)

	ctx := context.Background()
	const concurrent = 8

	results := make([]int64, concurrent)
	errs := make([]error, concurrent)

	var wg sync.WaitGroup
	wg.Add(concurrent)
	for i := 0; i < concurrent; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = kind.Call(ctx, sys, "employee#42", identityMsg{})
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, activations.Load())
	for i := 0; i < concurrent; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, int64(1), results[i])
	}

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

// opMsg carries a running-total update (Add) or a snapshot request (Get).
type opMsg struct {
	BaseMessage
	Add int
	Get bool
}

func (opMsg) MessageType() string { return "test.opMsg" }

// tally appends every Add to an internal history, never touching it on Get.
type tally struct {
	values []int
}

func newTally(string, *Assistant) ActorBehavior[opMsg, []int] {
	return &tally{}
}

func (t *tally) Receive(
	_ context.Context, msg opMsg, _ *Assistant) fn.Result[[]int] {

	if !msg.Get {
		t.values = append(t.values, msg.Add)
	}
	return fn.Ok(append([]int(nil), t.values...))
}

// TestOrderWithinIdentity verifies that sequential sends from one producer to
// the same identity are handled in the order they were sent.
func TestOrderWithinIdentity(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	kind := NewActorKind[string, opMsg, []int]("tally", newTally)
	ctx := context.Background()

	for _, v := range []int{1, 2, 3, 4, 5} {
		require.NoError(t, kind.Send(ctx, sys, "counter#1", opMsg{Add: v}))
	}

	result, err := kind.Call(ctx, sys, "counter#1", opMsg{Get: true})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, result)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

// addMsg is the running-total message used by the isolation scenario.
type addMsg struct {
	BaseMessage
	Add int
	Get bool
}

func (addMsg) MessageType() string { return "test.addMsg" }

type counterState struct {
	total int
}

func newCounterState(string, *Assistant) ActorBehavior[addMsg, int] {
	return &counterState{}
}

func (c *counterState) Receive(
	_ context.Context, msg addMsg, _ *Assistant) fn.Result[int] {

	if !msg.Get {
		c.total += msg.Add
	}
	return fn.Ok(c.total)
}

// TestIsolationAcrossIdentities verifies that interleaved sends from two
// producers to two distinct identities never cross-contaminate each
// identity's running total.
func TestIsolationAcrossIdentities(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	kind := NewActorKind[string, addMsg, int]("counter", newCounterState)
	ctx := context.Background()

	const perProducer = 500
	errCh := make(chan error, perProducer*2*2)

	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := kind.Send(ctx, sys, "counter#1", addMsg{Add: 1}); err != nil {
					errCh <- err
				}
				if err := kind.Send(ctx, sys, "counter#2", addMsg{Add: 1}); err != nil {
					errCh <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	v1, err := kind.Call(ctx, sys, "counter#1", addMsg{Get: true})
	require.NoError(t, err)
	require.Equal(t, 1000, v1)

	v2, err := kind.Call(ctx, sys, "counter#2", addMsg{Get: true})
	require.NoError(t, err)
	require.Equal(t, 1000, v2)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

type panicBehavior struct{}

func (panicBehavior) Receive(
	context.Context, identityMsg, *Assistant) fn.Result[int64] {

	panic("boom")
}

// TestPanicPoisonsProxy verifies the "poison + discard, never restart"
// policy: a handler panic fails the in-flight caller with ErrPoisoned, and a
// later send to the same identity activates a brand new proxy rather than
// reusing the poisoned one.
func TestPanicPoisonsProxy(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	kind := NewActorKind[string, identityMsg, int64](
		"panicky", func(string, *Assistant) ActorBehavior[identityMsg, int64] {
			return panicBehavior{}
		},
	)

	ctx := context.Background()
	_, err := kind.Call(ctx, sys, "p#1", identityMsg{})
	require.ErrorIs(t, err, ErrPoisoned)

	_, err = kind.Call(ctx, sys, "p#1", identityMsg{})
	require.ErrorIs(t, err, ErrPoisoned)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

type blockingState struct {
	unblock <-chan struct{}
}

func (b blockingState) Receive(
	ctx context.Context, _ identityMsg, _ *Assistant) fn.Result[int64] {

	select {
	case <-b.unblock:
	case <-ctx.Done():
	}
	return fn.Ok[int64](0)
}

// TestBackpressureMailboxFull verifies that a non-blocking send against a
// full mailbox returns ErrMailboxFull rather than waiting for space.
func TestBackpressureMailboxFull(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	unblock := make(chan struct{})
	kind := NewActorKind[string, identityMsg, int64](
		"blocker",
		func(string, *Assistant) ActorBehavior[identityMsg, int64] {
			return blockingState{unblock: unblock}
		},
		WithMailboxCapacity(1),
	)

	ctx := context.Background()

	require.NoError(t, kind.SendNonBlocking(ctx, sys, "b#1", identityMsg{}))
	// Give the consumer goroutine time to dequeue the first message and
	// start blocking inside Receive, freeing the one mailbox slot.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, kind.SendNonBlocking(ctx, sys, "b#1", identityMsg{}))

	err := kind.SendNonBlocking(ctx, sys, "b#1", identityMsg{})
	require.ErrorIs(t, err, ErrMailboxFull)

	close(unblock)
	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

type hangingState struct {
	release chan struct{}
	entered chan struct{}
}

func (h hangingState) Receive(
	ctx context.Context, _ identityMsg, _ *Assistant) fn.Result[int64] {

	close(h.entered)
	select {
	case <-h.release:
		return fn.Ok[int64](1)
	case <-ctx.Done():
		return fn.Err[int64](ctx.Err())
	}
}

// TestCallCancellationOnCallerDeadline verifies that a Call honors its
// caller's context deadline instead of waiting for the handler to finish.
func TestCallCancellationOnCallerDeadline(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	entered := make(chan struct{})
	release := make(chan struct{})

	kind := NewActorKind[string, identityMsg, int64](
		"hanger",
		func(string, *Assistant) ActorBehavior[identityMsg, int64] {
			return hangingState{release: release, entered: entered}
		},
	)

	callCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := kind.Call(callCtx, sys, "h#1", identityMsg{})
	require.Error(t, err)

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("handler never started")
	}

	close(release)
	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}
