package actor

import "errors"

// ErrShuttingDown is returned by any operation attempted after the System
// (or the specific ActorManager/ServiceWorkerPool it routes through) has
// begun its two-phase shutdown.
var ErrShuttingDown = errors.New("actor: system is shutting down")

// ErrMailboxFull is returned when a non-blocking send finds the target's
// mailbox at capacity.
var ErrMailboxFull = errors.New("actor: mailbox full")

// ErrTargetEnding is returned when a send targets a proxy that has already
// left the Running state and is draining towards Ended.
var ErrTargetEnding = errors.New("actor: target is ending")

// ErrCancelled is returned to a pending call whose message was still queued
// when its proxy or service pool tore down, so it was never handled. A call
// whose own context is cancelled or expires first returns that context's
// error instead.
var ErrCancelled = errors.New("actor: call cancelled")

// ErrPoisoned is returned to any pending caller whose request was in flight
// to a proxy that panicked while handling a message. The proxy discards its
// mailbox and transitions directly to Ended; it is never restarted.
var ErrPoisoned = errors.New("actor: actor poisoned by panic")

// ErrTypeMismatch indicates that an ActorTypeKey or ServiceTypeKey name was
// reused with a different identity, message, or response type than its
// first registration.
var ErrTypeMismatch = errors.New("actor: type key registered with mismatched types")
