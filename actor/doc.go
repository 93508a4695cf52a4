// Package actor implements an in-process actor and service runtime: typed
// mailboxes, lazily-activated per-identity actors grouped under a type
// registry, worker pools for stateless services, and a
// publish/subscribe broker, all coordinated by a single System that performs
// two-phase shutdown across every registered component.
//
// Actors are addressed by an (ActorTypeKey, identity) pair rather than a bare
// string id: the type key selects an ActorManager, and the identity selects
// one ActorProxy within it. Proxies are created on first send and reclaimed
// after an idle TTL. Services have no identity; a ServiceWorkerPool fans
// incoming messages out across a fixed, CPU-sized, or unbounded pool of
// workers with no ordering guarantee.
package actor
