package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// deadLetterBehavior is the shared handler backing every System's built-in
// dead-letter ServiceWorkerPool. It just counts and logs; operators who
// need more can subscribe to MessageTypeKey("system.dead_letter") instead,
// since Receive also republishes each letter through the broker.
type deadLetterBehavior struct {
	sys *System

	mu    sync.Mutex
	count uint64
}

// deadLetterTopic is the broker key every dropped or poisoned envelope is
// republished under, in addition to being counted.
const deadLetterTopic MessageTypeKey = "system.dead_letter"

func (d *deadLetterBehavior) Receive(
	ctx context.Context, msg Message, _ *Assistant) fn.Result[struct{}] {

	d.mu.Lock()
	d.count++
	total := d.count
	d.mu.Unlock()

	log.WarnS(ctx, "dead letter", nil, "message_type", msg.MessageType(), "total", total)

	if d.sys != nil {
		d.sys.broker.Publish(ctx, deadLetterTopic, msg)
	}

	return fn.Ok(struct{}{})
}

func (d *deadLetterBehavior) Count() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// deadLetterAdapter lets the generic dead-letter ServiceWorkerPool satisfy
// the non-generic deadLetterSink interface every ActorManager and
// ServiceWorkerPool routes undeliverable messages through.
type deadLetterAdapter struct {
	pool *ServiceWorkerPool[Message, struct{}]
}

func (a deadLetterAdapter) tellDeadLetter(msg Message) {
	if a.pool == nil {
		return
	}
	a.pool.enqueue(context.Background(), msg, nil, false)
}
