package commands

import (
	"fmt"
	"os"

	"github.com/actorhost/runtime/actor"
	"github.com/actorhost/runtime/config"
	"github.com/actorhost/runtime/internal/build"
	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// bootstrap loads the runtime config, wires the package-level actor logger
// the way cmd/substrated wires actor.UseLogger, and returns the loaded
// config plus the combined log handler so callers can adjust its level on
// config reload.
func bootstrap() (*config.RuntimeConfig, *build.HandlerSet, error) {
	cfg, err := config.NewLoader().Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := string(cfg.Log.Level)
	if logLevel != "" {
		level = logLevel
	}

	consoleHandler := btclogv2.NewDefaultHandler(os.Stderr)
	handlers := []btclogv2.Handler{consoleHandler}

	var logFile *os.File
	if cfg.Log.Dir != "" {
		if err := os.MkdirAll(cfg.Log.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log dir %s: %w",
				cfg.Log.Dir, err)
		}
		logFile, err = os.OpenFile(
			cfg.Log.Dir+"/actorhostd.log",
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, btclogv2.NewDefaultHandler(logFile))
	}

	combined := build.NewHandlerSet(handlers...)
	combined.SetLevel(parseLevel(level))

	actor.UseLogger(btclogv2.NewSLogger(combined))

	return cfg, combined, nil
}

func parseLevel(level string) btclog.Level {
	switch level {
	case "trace":
		return btclog.LevelTrace
	case "debug":
		return btclog.LevelDebug
	case "warn":
		return btclog.LevelWarn
	case "error":
		return btclog.LevelError
	default:
		return btclog.LevelInfo
	}
}

// managerOptions translates config.ActorSection into the ManagerOptions
// every demo ActorKind in this binary is built with.
func managerOptions(cfg *config.RuntimeConfig) []actor.ManagerOption {
	return []actor.ManagerOption{
		actor.WithMailboxCapacity(cfg.Actor.MailboxCapacity),
		actor.WithIdleTTL(cfg.Actor.IdleTTL),
		actor.WithSweepInterval(cfg.Actor.SweepInterval),
	}
}
