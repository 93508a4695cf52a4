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

type eventMsg struct {
	BaseMessage
	Value int
}

func (eventMsg) MessageType() string { return "test.eventMsg" }

type otherMsg struct {
	BaseMessage
}

func (otherMsg) MessageType() string { return "test.otherMsg" }

// TestBrokerFanOutExactlyOnce verifies the fan-out invariant: publish
// delivers exactly one envelope to each subscriber of the published type,
// and none to subscribers of a different type under the same key.
func TestBrokerFanOutExactlyOnce(t *testing.T) {
	t.Parallel()

	broker := newSubscriptionBroker()
	const topic MessageTypeKey = "events"

	var mu sync.Mutex
	var received []int

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		Subscribe[eventMsg](broker, topic, func(_ context.Context, msg eventMsg) {
			defer wg.Done()
			mu.Lock()
			received = append(received, msg.Value)
			mu.Unlock()
		})
	}

	var otherCalls int
	var otherMu sync.Mutex
	Subscribe[otherMsg](broker, topic, func(context.Context, otherMsg) {
		otherMu.Lock()
		otherCalls++
		otherMu.Unlock()
	})

	fanout := broker.Publish(context.Background(), topic, eventMsg{Value: 7})
	require.Equal(t, 4, fanout)

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 3)
	for _, v := range received {
		require.Equal(t, 7, v)
	}

	otherMu.Lock()
	defer otherMu.Unlock()
	require.Equal(t, 0, otherCalls)
}

// TestSubscribeServiceRoutesPublishesIntoPool verifies that a service pool
// registered as a broker endpoint receives exactly one delivery per publish
// of its message type.
func TestSubscribeServiceRoutesPublishesIntoPool(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	const topic MessageTypeKey = "events.work"

	var handled atomic.Int64
	kind := NewServiceKind[eventMsg, int](
		"event-sink", Fixed(2),
		func(int) ActorBehavior[eventMsg, int] {
			return eventSink{handled: &handled}
		},
	)

	SubscribeService(sys, topic, kind)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		sys.Broker().Publish(ctx, topic, eventMsg{Value: i})
	}

	require.Eventually(t, func() bool {
		return handled.Load() == 5
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, sys.WaitUntilStopped(context.Background()))
}

type eventSink struct {
	handled *atomic.Int64
}

func (s eventSink) Receive(
	_ context.Context, msg eventMsg, _ *Assistant) fn.Result[int] {

	s.handled.Add(1)
	return fn.Ok(msg.Value)
}

// TestBrokerUnsubscribe verifies that an unsubscribed endpoint no longer
// receives publications and that Unsubscribe reports whether it found an
// entry to remove.
func TestBrokerUnsubscribe(t *testing.T) {
	t.Parallel()

	broker := newSubscriptionBroker()
	const topic MessageTypeKey = "events"

	delivered := make(chan struct{}, 1)
	id := Subscribe[eventMsg](broker, topic, func(context.Context, eventMsg) {
		delivered <- struct{}{}
	})

	require.Equal(t, 1, broker.SubscriberCount(topic))
	require.True(t, Unsubscribe(broker, topic, id))
	require.False(t, Unsubscribe(broker, topic, id))
	require.Equal(t, 0, broker.SubscriberCount(topic))

	broker.Publish(context.Background(), topic, eventMsg{Value: 1})

	select {
	case <-delivered:
		t.Fatal("unsubscribed endpoint should not have received a publication")
	case <-time.After(50 * time.Millisecond):
	}
}
