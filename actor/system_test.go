package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

type salaryMsg struct {
	BaseMessage
	SetTo int
	Get   bool
}

func (salaryMsg) MessageType() string { return "test.salaryMsg" }

type employeeSalary struct {
	amount int
}

func newEmployeeSalary(string, *Assistant) ActorBehavior[salaryMsg, int] {
	return &employeeSalary{}
}

func (e *employeeSalary) Receive(
	_ context.Context, msg salaryMsg, _ *Assistant) fn.Result[int] {

	if !msg.Get {
		e.amount = msg.SetTo
	}
	return fn.Ok(e.amount)
}

// TestCallObservesPriorSend verifies that a call to an actor observes the
// state set by a preceding send to the same identity.
func TestCallObservesPriorSend(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	kind := NewActorKind[string, salaryMsg, int]("employee-salary", newEmployeeSalary)
	ctx := context.Background()

	require.NoError(t, kind.Send(ctx, sys, "employee#42", salaryMsg{SetTo: 55_000}))

	salary, err := kind.Call(ctx, sys, "employee#42", salaryMsg{Get: true})
	require.NoError(t, err)
	require.Equal(t, 55_000, salary)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

type handledCounter struct {
	handled *atomic.Int64
}

func (h handledCounter) Receive(
	_ context.Context, _ addMsg, _ *Assistant) fn.Result[int] {

	h.handled.Add(1)
	return fn.Ok(0)
}

// TestShutdownDrainsEverything verifies that every message accepted across
// many identities before Stop is handled exactly once by the time
// WaitUntilStopped returns, and none are dropped to the dead-letter pool.
func TestShutdownDrainsEverything(t *testing.T) {
	t.Parallel()

	sys := NewSystem()

	var handled atomic.Int64
	kind := NewActorKind[string, addMsg, int](
		"drain-counter",
		func(string, *Assistant) ActorBehavior[addMsg, int] {
			return handledCounter{handled: &handled}
		},
	)
	ctx := context.Background()

	const identities = 100
	const perIdentity = 100

	var wg sync.WaitGroup
	for i := 0; i < identities; i++ {
		id := fmt.Sprintf("identity-%d", i)
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < perIdentity; j++ {
				require.NoError(t, kind.Send(ctx, sys, id, addMsg{Add: 1}))
			}
		}(id)
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, sys.WaitUntilStopped(shutdownCtx))

	require.EqualValues(t, identities*perIdentity, handled.Load())
	require.EqualValues(t, 0, sys.DeadLetterCount())
}

// TestSystemRejectsTypeMismatch verifies that reusing an ActorTypeKey name
// with different type parameters is rejected rather than silently
// corrupting the registry.
func TestSystemRejectsTypeMismatch(t *testing.T) {
	t.Parallel()

	sys := NewSystem()

	first := NewActorKind[string, addMsg, int]("shared-name", newCounterState)
	_, err := first.manager(sys)
	require.NoError(t, err)

	second := NewActorKind[string, opMsg, []int]("shared-name", newTally)
	_, err = second.manager(sys)
	require.ErrorIs(t, err, ErrTypeMismatch)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

// TestPreloadServiceCreatesPoolEagerly verifies that PreloadService creates
// a ServiceWorkerPool before any message is sent to it.
func TestPreloadServiceCreatesPoolEagerly(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	kind := NewServiceKind[workMsg, int]("preload-squarer", Fixed(2), newSquarer)

	require.NoError(t, PreloadService(sys, kind))

	stats := sys.Stats()
	require.True(t, containsPoolKey(stats.Services, "preload-squarer"))

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

func containsPoolKey(services []PoolStats, key ServiceTypeKey) bool {
	for _, s := range services {
		if s.Key == key {
			return true
		}
	}
	return false
}

// TestDeadLetterRoutingOnPoison verifies that a message in flight to a
// proxy that panics is counted as a dead letter.
func TestDeadLetterRoutingOnPoison(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	kind := NewActorKind[string, identityMsg, int64](
		"dead-letter-panicky",
		func(string, *Assistant) ActorBehavior[identityMsg, int64] {
			return panicBehavior{}
		},
	)

	ctx := context.Background()
	_, err := kind.Call(ctx, sys, "dl#1", identityMsg{})
	require.ErrorIs(t, err, ErrPoisoned)

	require.Eventually(t, func() bool {
		return sys.DeadLetterCount() >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}
