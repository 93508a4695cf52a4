package actor

import "context"

func outcomeErr(o EnqueueOutcome) error {
	switch o {
	case Accepted:
		return nil
	case RejectedEnding:
		return ErrTargetEnding
	case RejectedFull:
		return ErrMailboxFull
	default:
		return nil
	}
}

// ActorKind is a typed, reusable handle for one family of actors: a name,
// an activation function, and the identity/message/response types that
// together pin down exactly one ActorManager inside any System it is used
// with. Build one with NewActorKind and reuse it everywhere that family of
// actors is addressed.
type ActorKind[ID comparable, M Message, R any] struct {
	typeKey  ActorTypeKey
	activate activateFunc[ID, M, R]
	opts     []ManagerOption
}

// NewActorKind builds an ActorKind. activate is called once per proxy: the
// first time an identity is addressed in a given System, and again the
// next time it is addressed after its previous proxy was evicted, stopped,
// or poisoned. Each call builds the behavior instance that proxy owns.
func NewActorKind[ID comparable, M Message, R any](
	name string, activate func(id ID, asst *Assistant) ActorBehavior[M, R],
	opts ...ManagerOption) ActorKind[ID, M, R] {

	return ActorKind[ID, M, R]{
		typeKey:  ActorTypeKey(name),
		activate: activate,
		opts:     opts,
	}
}

// TypeKey returns the ActorTypeKey this kind resolves to.
func (k ActorKind[ID, M, R]) TypeKey() ActorTypeKey {
	return k.typeKey
}

func (k ActorKind[ID, M, R]) manager(sys *System) (*ActorManager[ID, M, R], error) {
	return managerFor[ID, M, R](sys, k.typeKey, k.activate, k.opts...)
}

// Send enqueues msg for id, blocking until it is accepted, ctx is done, or
// the actor is not accepting new messages.
func (k ActorKind[ID, M, R]) Send(ctx context.Context, sys *System, id ID, msg M) error {
	mgr, err := k.manager(sys)
	if err != nil {
		return err
	}
	return outcomeErr(mgr.route(ctx, id, msg, nil, true))
}

// SendNonBlocking enqueues msg for id without waiting for mailbox space.
func (k ActorKind[ID, M, R]) SendNonBlocking(ctx context.Context, sys *System, id ID, msg M) error {
	mgr, err := k.manager(sys)
	if err != nil {
		return err
	}
	return outcomeErr(mgr.route(ctx, id, msg, nil, false))
}

// Call enqueues msg for id and blocks until a response arrives, ctx is
// done, or the send itself could not be accepted.
func (k ActorKind[ID, M, R]) Call(ctx context.Context, sys *System, id ID, msg M) (R, error) {
	mgr, err := k.manager(sys)
	if err != nil {
		var zero R
		return zero, err
	}

	promise := NewPromise[R]()
	mgr.route(ctx, id, msg, promise, true)
	return promise.Future().Await(ctx).Unpack()
}

// ServiceKind is the identity-less counterpart to ActorKind, pinning down
// one ServiceWorkerPool.
type ServiceKind[M Message, R any] struct {
	key        ServiceTypeKey
	mode       ConcurrencyMode
	factory    serviceFactory[M, R]
	mailboxCap int
}

// NewServiceKind builds a ServiceKind. factory is called once, regardless
// of concurrency mode, to build the shared behavior instance every worker
// invokes; it must be safe for concurrent use whenever mode allows more
// than one worker.
func NewServiceKind[M Message, R any](
	name string, mode ConcurrencyMode,
	factory func(workerIdx int) ActorBehavior[M, R]) ServiceKind[M, R] {

	return ServiceKind[M, R]{
		key:        ServiceTypeKey(name),
		mode:       mode,
		factory:    factory,
		mailboxCap: defaultMailboxCapacity,
	}
}

// TypeKey returns the ServiceTypeKey this kind resolves to.
func (k ServiceKind[M, R]) TypeKey() ServiceTypeKey {
	return k.key
}

func (k ServiceKind[M, R]) pool(sys *System) (*ServiceWorkerPool[M, R], error) {
	return poolFor[M, R](sys, k.key, k.mode, k.factory, k.mailboxCap)
}

// Send enqueues msg on the pool's shared mailbox, blocking until accepted.
func (k ServiceKind[M, R]) Send(ctx context.Context, sys *System, msg M) error {
	pool, err := k.pool(sys)
	if err != nil {
		return err
	}
	return outcomeErr(pool.enqueue(ctx, msg, nil, true))
}

// Call enqueues msg and blocks for a response from whichever worker
// dequeues it.
func (k ServiceKind[M, R]) Call(ctx context.Context, sys *System, msg M) (R, error) {
	pool, err := k.pool(sys)
	if err != nil {
		var zero R
		return zero, err
	}

	promise := NewPromise[R]()
	pool.enqueue(ctx, msg, promise, true)
	return promise.Future().Await(ctx).Unpack()
}
