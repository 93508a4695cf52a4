package commands

import (
	"fmt"

	"github.com/actorhost/runtime/actor"
	"github.com/actorhost/runtime/config"
	"github.com/actorhost/runtime/internal/demo"
)

// preloadConfigured eagerly creates every ServiceWorkerPool named in
// cfg.Preload, with the concurrency mode the entry asks for. Only
// "demo.greeter" is a recognized name in this binary; anything else is a
// configuration error, surfaced immediately rather than silently ignored.
func preloadConfigured(sys *actor.System, cfg *config.RuntimeConfig) error {
	for _, p := range cfg.Preload {
		switch p.Name {
		case "demo.greeter":
			kind := demo.NewGreeterKind(concurrencyMode(p))
			if err := actor.PreloadService(sys, kind); err != nil {
				return fmt.Errorf("preload %s: %w", p.Name, err)
			}
		default:
			return fmt.Errorf("preload: unrecognized service %q", p.Name)
		}
	}
	return nil
}

// concurrencyMode translates a validated PreloadEntry's concurrency fields
// into the pool mode PreloadService needs. An empty concurrency string falls
// back to CoreCount, matching the demo services' own defaults.
func concurrencyMode(p config.PreloadEntry) actor.ConcurrencyMode {
	switch p.Concurrency {
	case "fixed":
		return actor.Fixed(p.Size)
	case "unlimited":
		return actor.Unlimited()
	default:
		return actor.CoreCount()
	}
}
