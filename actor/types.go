package actor

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActorTypeKey names a family of actors sharing one ActorManager, one
// activation function, and one message/response type pair. Two ActorKind
// values built with the same name but different type parameters are a
// programmer error and are rejected at first use with ErrTypeMismatch.
type ActorTypeKey string

// ServiceTypeKey names one ServiceWorkerPool, the identity-less counterpart
// to ActorTypeKey.
type ServiceTypeKey string

// MessageTypeKey names a subscription channel in the Subscription Broker.
// Every message published under a given key is delivered to every endpoint
// currently subscribed to that key; deliveries are started in subscription
// order, each on its own goroutine, so their completion order is not fixed.
type MessageTypeKey string

// Address identifies a single actor: the type it belongs to, plus the
// identity distinguishing it from its siblings. Identities must be
// comparable so they can key an ActorManager's registry map; String is used
// for diagnostics and log fields.
type Address[ID comparable] struct {
	Type ActorTypeKey
	ID   ID
}

// String renders the address as "type#id", matching the diagnostic style
// the rest of the package uses for actor identifiers.
func (a Address[ID]) String() string {
	return fmt.Sprintf("%s#%v", a.Type, a.ID)
}

// ProxyState is the lifecycle state of a single ActorProxy.
type ProxyState uint8

const (
	// StateStarting means the proxy's slot has been reserved in the
	// manager's registry but its activation function has not yet
	// returned and its consumer loop has not started draining its
	// mailbox.
	StateStarting ProxyState = iota

	// StateRunning means the proxy's consumer loop is actively
	// dequeuing and awaiting handlers in FIFO order.
	StateRunning

	// StateEnding means a stop has been requested (or the system is
	// shutting down); the proxy is no longer accepting new user
	// messages and is draining toward Ended.
	StateEnding

	// StateEnded is terminal: the proxy's goroutine has exited, its
	// mailbox is closed and drained, and it has been (or is about to
	// be) reclaimed from its manager's registry.
	StateEnded
)

// String implements fmt.Stringer for log fields and test failure messages.
func (s ProxyState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateEnding:
		return "ending"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a ProxyState as its String form so stats snapshots
// serialize readably.
func (s ProxyState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// EnqueueOutcome reports what happened to a message handed to a proxy or
// pool.
type EnqueueOutcome uint8

const (
	// Accepted means the message was placed on the mailbox.
	Accepted EnqueueOutcome = iota

	// RejectedEnding means the target had already left Running and is
	// draining toward Ended; the message was not enqueued.
	RejectedEnding

	// RejectedFull means the mailbox was at capacity and the send was
	// non-blocking.
	RejectedFull
)

// String implements fmt.Stringer.
func (o EnqueueOutcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedEnding:
		return "rejected_ending"
	case RejectedFull:
		return "rejected_full"
	default:
		return "unknown"
	}
}

// defaultMailboxCapacity is the bounded channel depth given to a freshly
// created ActorProxy or ServiceWorkerPool when no override is supplied.
const defaultMailboxCapacity = 150_000

// defaultIdleTTL is how long an ActorProxy may sit without a new message
// before an ActorManager's idle sweep reclaims it.
const defaultIdleTTL = 5 * time.Minute

// defaultEvictionSweepInterval is how often an ActorManager scans its
// registry for idle proxies to reclaim.
const defaultEvictionSweepInterval = 30 * time.Second
