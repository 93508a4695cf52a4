// Package config loads the YAML bootstrap settings for an actorhostd
// instance: default mailbox sizing, idle eviction TTL, and the set of
// services to preload at startup. It follows the same
// default-struct-plus-file-override-plus-validate shape as najoast-sngo's
// config loader, trimmed to the knobs this runtime actually exposes.
package config

import (
	"fmt"
	"os"
	"time"
)

// LogLevel is the textual log level carried in the config file; actorhostd
// maps it onto a btclog.Level when it builds its logger.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the recognized levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// PreloadEntry eagerly creates a ServiceWorkerPool at startup instead of
// waiting for its first message, matching actor.PreloadService.
type PreloadEntry struct {
	// Name is the ServiceTypeKey to preload.
	Name string `yaml:"name"`

	// Concurrency selects the pool's ConcurrencyMode: "fixed", "cores",
	// or "unlimited".
	Concurrency string `yaml:"concurrency"`

	// Size is only consulted when Concurrency is "fixed".
	Size int `yaml:"size,omitempty"`
}

// ActorSection configures the defaults every ActorManager created by the
// bootstrapped System will use unless a caller overrides them per-kind.
type ActorSection struct {
	// MailboxCapacity is the bounded depth given to every proxy's
	// mailbox.
	MailboxCapacity int `yaml:"mailbox_capacity"`

	// IdleTTL is how long a proxy may sit idle before the manager's
	// sweep requests it stop.
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// SweepInterval is how often a manager scans for idle proxies.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LogSection configures the runtime's console/file logging fan-out.
type LogSection struct {
	Level LogLevel `yaml:"level"`

	// Dir, when non-empty, enables a second log stream at
	// <Dir>/actorhostd.log in addition to the console.
	Dir string `yaml:"dir,omitempty"`
}

// RuntimeConfig is the complete actorhostd bootstrap configuration.
type RuntimeConfig struct {
	Actor   ActorSection   `yaml:"actor"`
	Log     LogSection     `yaml:"log"`
	Preload []PreloadEntry `yaml:"preload,omitempty"`
}

// DefaultRuntimeConfig returns the configuration used when no file is
// supplied or a file omits a given section.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Actor: ActorSection{
			MailboxCapacity: 150_000,
			IdleTTL:         5 * time.Minute,
			SweepInterval:   30 * time.Second,
		},
		Log: LogSection{
			Level: LogLevelInfo,
		},
	}
}

// Validate rejects a RuntimeConfig with nonsensical values before it is
// handed to the runtime.
func (c *RuntimeConfig) Validate() error {
	if c.Actor.MailboxCapacity <= 0 {
		return fmt.Errorf("actor.mailbox_capacity must be positive, got %d",
			c.Actor.MailboxCapacity)
	}
	if c.Actor.IdleTTL <= 0 {
		return fmt.Errorf("actor.idle_ttl must be positive, got %s",
			c.Actor.IdleTTL)
	}
	if c.Actor.SweepInterval <= 0 {
		return fmt.Errorf("actor.sweep_interval must be positive, got %s",
			c.Actor.SweepInterval)
	}
	if c.Log.Level != "" && !c.Log.Level.IsValid() {
		return fmt.Errorf("log.level %q is not a recognized level", c.Log.Level)
	}
	for _, p := range c.Preload {
		if p.Name == "" {
			return fmt.Errorf("preload entry missing a service name")
		}
		switch p.Concurrency {
		case "", "fixed", "cores", "unlimited":
		default:
			return fmt.Errorf("preload %q: unrecognized concurrency %q",
				p.Name, p.Concurrency)
		}
	}
	return nil
}

// mergeDefaults fills any zero-valued field of c from defaults, mirroring
// najoast-sngo's Loader.mergeConfig behavior of a user file only needing to
// specify what it wants to override.
func mergeDefaults(c, defaults *RuntimeConfig) *RuntimeConfig {
	merged := *defaults

	if c.Actor.MailboxCapacity != 0 {
		merged.Actor.MailboxCapacity = c.Actor.MailboxCapacity
	}
	if c.Actor.IdleTTL != 0 {
		merged.Actor.IdleTTL = c.Actor.IdleTTL
	}
	if c.Actor.SweepInterval != 0 {
		merged.Actor.SweepInterval = c.Actor.SweepInterval
	}
	if c.Log.Level != "" {
		merged.Log.Level = c.Log.Level
	}
	if c.Log.Dir != "" {
		merged.Log.Dir = c.Log.Dir
	}
	if c.Preload != nil {
		merged.Preload = c.Preload
	}

	return &merged
}

// fileExists is a small helper so callers can decide whether to fall back
// to defaults instead of treating a missing optional config path as fatal.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
