package config

import "testing"

func TestDefaultRuntimeConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultRuntimeConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsNonPositiveMailboxCapacity(t *testing.T) {
	t.Parallel()

	cfg := DefaultRuntimeConfig()
	cfg.Actor.MailboxCapacity = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero mailbox capacity")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	t.Parallel()

	cfg := DefaultRuntimeConfig()
	cfg.Log.Level = LogLevel("nonsense")

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unrecognized log level")
	}
}

func TestValidateRejectsUnrecognizedPreloadConcurrency(t *testing.T) {
	t.Parallel()

	cfg := DefaultRuntimeConfig()
	cfg.Preload = []PreloadEntry{{Name: "svc", Concurrency: "bogus"}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unrecognized preload concurrency")
	}
}

func TestMergeDefaultsOnlyOverridesSetFields(t *testing.T) {
	t.Parallel()

	defaults := DefaultRuntimeConfig()
	partial := &RuntimeConfig{
		Log: LogSection{Level: LogLevelDebug},
	}

	merged := mergeDefaults(partial, defaults)

	if merged.Log.Level != LogLevelDebug {
		t.Fatalf("expected overridden log level, got %q", merged.Log.Level)
	}
	if merged.Actor.MailboxCapacity != defaults.Actor.MailboxCapacity {
		t.Fatalf("expected default mailbox capacity to survive merge, got %d",
			merged.Actor.MailboxCapacity)
	}
	if merged.Actor.IdleTTL != defaults.Actor.IdleTTL {
		t.Fatalf("expected default idle TTL to survive merge, got %s",
			merged.Actor.IdleTTL)
	}
}
