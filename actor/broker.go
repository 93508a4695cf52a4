package actor

import (
	"context"
	"sync"
	"sync/atomic"
)

// SubscriptionID identifies one Subscribe call so it can later be passed to
// Unsubscribe.
type SubscriptionID uint64

type subscriberEntry struct {
	id      SubscriptionID
	deliver func(ctx context.Context, msg Message)
}

// SubscriptionBroker fans a published message out to every endpoint
// currently subscribed under the same MessageTypeKey, starting deliveries in
// the order they subscribed. Delivery is best-effort and non-blocking from the
// publisher's point of view: each endpoint is invoked on its own
// goroutine, so one slow subscriber never holds up Publish or its
// siblings.
type SubscriptionBroker struct {
	mu   sync.RWMutex
	subs map[MessageTypeKey][]subscriberEntry
	next atomic.Uint64
}

func newSubscriptionBroker() *SubscriptionBroker {
	return &SubscriptionBroker{
		subs: make(map[MessageTypeKey][]subscriberEntry),
	}
}

// Subscribe registers handler under key. handler is only invoked for
// published values that type-assert to M; a broker shared across several
// message shapes under the same key simply skips deliveries that don't
// match a given subscriber's type.
func Subscribe[M Message](
	broker *SubscriptionBroker, key MessageTypeKey,
	handler func(ctx context.Context, msg M)) SubscriptionID {

	id := SubscriptionID(broker.next.Add(1))

	entry := subscriberEntry{
		id: id,
		deliver: func(ctx context.Context, msg Message) {
			typed, ok := msg.(M)
			if !ok {
				return
			}
			handler(ctx, typed)
		},
	}

	broker.mu.Lock()
	broker.subs[key] = append(broker.subs[key], entry)
	broker.mu.Unlock()

	return id
}

// SubscribeService routes every message published under key that matches
// the service's message type into its worker pool, making the pool a
// durable broker endpoint rather than an ad hoc closure. Delivery is a
// non-blocking enqueue; a full or stopping pool drops the publication with
// a diagnostic, since publishes never wait for consumption.
func SubscribeService[M Message, R any](
	sys *System, key MessageTypeKey, kind ServiceKind[M, R]) SubscriptionID {

	return Subscribe[M](sys.broker, key,
		func(ctx context.Context, msg M) {
			pool, err := kind.pool(sys)
			if err == nil {
				outcome := pool.enqueue(ctx, msg, nil, false)
				if outcome == Accepted {
					return
				}
				err = outcomeErr(outcome)
			}
			log.WarnS(ctx, "subscription delivery failed", err,
				"service", string(kind.key), "key", string(key))
		})
}

// Unsubscribe removes a prior Subscribe registration. It reports whether an
// entry was found and removed.
func Unsubscribe(broker *SubscriptionBroker, key MessageTypeKey, id SubscriptionID) bool {
	broker.mu.Lock()
	defer broker.mu.Unlock()

	entries, ok := broker.subs[key]
	if !ok {
		return false
	}

	for i, e := range entries {
		if e.id != id {
			continue
		}
		broker.subs[key] = append(entries[:i:i], entries[i+1:]...)
		if len(broker.subs[key]) == 0 {
			delete(broker.subs, key)
		}
		return true
	}
	return false
}

// Publish delivers msg to every endpoint subscribed under key and returns
// how many were fanned out to.
func (b *SubscriptionBroker) Publish(ctx context.Context, key MessageTypeKey, msg Message) int {
	b.mu.RLock()
	entries := append([]subscriberEntry(nil), b.subs[key]...)
	b.mu.RUnlock()

	for _, e := range entries {
		go e.deliver(ctx, msg)
	}

	log.TraceS(ctx, "published", "key", string(key), "fanout", len(entries))

	return len(entries)
}

// SubscriberCount reports how many endpoints are currently subscribed
// under key, for Stats().
func (b *SubscriptionBroker) SubscriberCount(key MessageTypeKey) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}
