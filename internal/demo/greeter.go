package demo

import (
	"context"
	"fmt"

	"github.com/actorhost/runtime/actor"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// GreetingMsg asks the Greeter service for a greeting addressed to Name.
type GreetingMsg struct {
	actor.BaseMessage
	Name string
}

// MessageType implements actor.Message.
func (GreetingMsg) MessageType() string { return "demo.GreetingMsg" }

// GreetingTopic is the MessageTypeKey every GreetingMsg is republished
// under after a Greeter handles one, so other subscribers can observe
// traffic fan-out through the Subscription Broker.
const GreetingTopic actor.MessageTypeKey = "demo.greeting"

// GreeterKind is the ServiceKind backing the stateless Greeter pool. It
// runs with CoreCount workers since greeting construction has no shared
// state that would need serializing.
var GreeterKind = NewGreeterKind(actor.CoreCount())

// NewGreeterKind builds a Greeter ServiceKind with an explicit concurrency
// mode, for callers whose pool sizing comes from a config file rather than
// the CoreCount default.
func NewGreeterKind(mode actor.ConcurrencyMode) actor.ServiceKind[GreetingMsg, string] {
	return actor.NewServiceKind[GreetingMsg, string](
		"demo.greeter", mode, newGreeter)
}

type greeter struct{}

func newGreeter(int) actor.ActorBehavior[GreetingMsg, string] {
	return greeter{}
}

// Receive implements actor.ActorBehavior. It also publishes the greeting
// under GreetingTopic so Broker subscribers see every greeting produced,
// not just the caller awaiting the direct response.
func (greeter) Receive(
	ctx context.Context, msg GreetingMsg, asst *actor.Assistant) fn.Result[string] {

	greeting := fmt.Sprintf("hello, %s", msg.Name)
	asst.Publish(ctx, GreetingTopic, msg)

	return fn.Ok(greeting)
}
