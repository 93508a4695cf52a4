package actor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

type stoppableBehavior struct {
	onStopCalled *atomic.Bool
	cleanupDone  chan struct{}
}

func (b stoppableBehavior) Receive(
	_ context.Context, _ identityMsg, _ *Assistant) fn.Result[int64] {

	return fn.Ok[int64](0)
}

func (b stoppableBehavior) OnStop(context.Context) error {
	b.onStopCalled.Store(true)
	close(b.cleanupDone)
	return nil
}

// TestStoppableHookInvokedOnTeardown verifies that a behavior implementing
// Stoppable has OnStop invoked once its proxy begins tearing down.
func TestStoppableHookInvokedOnTeardown(t *testing.T) {
	t.Parallel()

	sys := NewSystem()

	var onStopCalled atomic.Bool
	cleanupDone := make(chan struct{})

	kind := NewActorKind[string, identityMsg, int64](
		"stoppable",
		func(string, *Assistant) ActorBehavior[identityMsg, int64] {
			return stoppableBehavior{onStopCalled: &onStopCalled, cleanupDone: cleanupDone}
		},
	)

	ctx := context.Background()
	require.NoError(t, kind.Send(ctx, sys, "s#1", identityMsg{}))

	require.NoError(t, sys.WaitUntilStopped(context.Background()))

	require.True(t, onStopCalled.Load())
	select {
	case <-cleanupDone:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("OnStop cleanup did not complete")
	}
}

// TestTypeKeyRoundTrip verifies that ActorKind and ServiceKind report back
// the name they were constructed with.
func TestTypeKeyRoundTrip(t *testing.T) {
	t.Parallel()

	actorKind := NewActorKind[string, addMsg, int]("type-key-actor", newCounterState)
	require.Equal(t, ActorTypeKey("type-key-actor"), actorKind.TypeKey())

	serviceKind := NewServiceKind[workMsg, int]("type-key-service", Fixed(1), newSquarer)
	require.Equal(t, ServiceTypeKey("type-key-service"), serviceKind.TypeKey())
}

// TestServiceKindSendAndCall verifies the fire-and-forget Send path for a
// ServiceKind in addition to its Call path, covered elsewhere.
func TestServiceKindSendAndCall(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	kind := NewServiceKind[workMsg, int]("send-squarer", CoreCount(), newSquarer)
	ctx := context.Background()

	require.NoError(t, kind.Send(ctx, sys, workMsg{N: 3}))

	v, err := kind.Call(ctx, sys, workMsg{N: 6})
	require.NoError(t, err)
	require.Equal(t, 36, v)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}
