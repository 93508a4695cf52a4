// Package demo provides a small actor and service used by actorhostd's
// "run" and "stats" subcommands to exercise a live System end to end: a
// per-identity Counter actor and a stateless Greeter service.
package demo

import (
	"context"

	"github.com/actorhost/runtime/actor"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// CounterMsg is the message family a Counter actor understands: Add
// increments its running total and Get reports it.
type CounterMsg struct {
	actor.BaseMessage

	// Add, when non-zero, is added to the counter's running total.
	Add int

	// Get, when true, requests the current total without mutating it.
	Get bool
}

// MessageType implements actor.Message.
func (CounterMsg) MessageType() string { return "demo.CounterMsg" }

// NewCounterKind builds the ActorKind every Counter identity is addressed
// through. Callers pass ManagerOptions (mailbox capacity, idle TTL) sourced
// from their own config.ActorSection.
func NewCounterKind(opts ...actor.ManagerOption) actor.ActorKind[string, CounterMsg, int] {
	return actor.NewActorKind[string, CounterMsg, int](
		"demo.counter", newCounter, opts...)
}

// counter is the behavior instance activated for each proxy of an identity
// addressed through a kind built by NewCounterKind.
type counter struct {
	id    string
	total int
}

func newCounter(id string, _ *actor.Assistant) actor.ActorBehavior[CounterMsg, int] {
	return &counter{id: id}
}

// Receive implements actor.ActorBehavior. It never touches c.total outside
// of this call, which is what gives every Counter identity's history
// strict FIFO ordering: the proxy awaits this call to completion before
// dequeuing the next message.
func (c *counter) Receive(
	_ context.Context, msg CounterMsg, _ *actor.Assistant) fn.Result[int] {

	if !msg.Get {
		c.total += msg.Add
	}
	return fn.Ok(c.total)
}
