package actor

import "context"

// Assistant is the capability handle a behavior receives alongside each
// message: it can stop the identity it belongs to, talk to other actors or
// services, and publish. It deliberately exposes no direct reference to
// the System or its registries — only the narrow surface a handler needs.
type Assistant struct {
	sys      *System
	addr     string
	stopSelf func()
}

func newAssistant(sys *System, addr string, stopSelf func()) *Assistant {
	return &Assistant{sys: sys, addr: addr, stopSelf: stopSelf}
}

// Address returns the string form of the address this Assistant belongs
// to, e.g. "counter#42" for an actor or "service:billing" for a service
// worker.
func (a *Assistant) Address() string {
	return a.addr
}

// StopSelf requests the owning proxy begin draining toward Ended. It is a
// no-op when called from a shared service worker, since a service pool has
// no single identity to stop independent of the others.
func (a *Assistant) StopSelf() {
	a.stopSelf()
}

// Publish fans msg out to every current subscriber under key via the
// System's broker.
func (a *Assistant) Publish(ctx context.Context, key MessageTypeKey, msg Message) int {
	return a.sys.broker.Publish(ctx, key, msg)
}

// SendToActor is a package-level generic helper (Assistant methods cannot
// carry their own type parameters) that tells an actor from within another
// actor's or service's handler.
func SendToActor[ID comparable, M Message, R any](
	a *Assistant, ctx context.Context, kind ActorKind[ID, M, R], id ID, msg M) error {

	return kind.Send(ctx, a.sys, id, msg)
}

// CallToActor is the Assistant-scoped counterpart to ActorKind.Call.
func CallToActor[ID comparable, M Message, R any](
	a *Assistant, ctx context.Context, kind ActorKind[ID, M, R], id ID, msg M) (R, error) {

	return kind.Call(ctx, a.sys, id, msg)
}

// SendToService tells a service worker pool from within a handler.
func SendToService[M Message, R any](
	a *Assistant, ctx context.Context, kind ServiceKind[M, R], msg M) error {

	return kind.Send(ctx, a.sys, msg)
}

// CallToService asks a service worker pool from within a handler.
func CallToService[M Message, R any](
	a *Assistant, ctx context.Context, kind ServiceKind[M, R], msg M) (R, error) {

	return kind.Call(ctx, a.sys, msg)
}
