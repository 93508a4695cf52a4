package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actorhost/runtime/actor"
	"github.com/actorhost/runtime/config"
	"github.com/actorhost/runtime/internal/demo"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot a System, preload configured services, and serve until signaled",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logHandler, err := bootstrap()
	if err != nil {
		return err
	}

	// With a config file present, reload it on change: the log level
	// applies immediately through the combined handler. Reloaded actor
	// sizing knobs are not applied; the demo kinds keep the startup values.
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, config.NewLoader())
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		watcher.OnChange(func(_, newCfg *config.RuntimeConfig) {
			if logLevel == "" {
				logHandler.SetLevel(parseLevel(string(newCfg.Log.Level)))
			}
			fmt.Fprintf(os.Stderr, "config reloaded (log level %s)\n",
				newCfg.Log.Level)
		})
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	sys := actor.NewSystem()
	counterKind := demo.NewCounterKind(managerOptions(cfg)...)

	if err := preloadConfigured(sys, cfg); err != nil {
		return err
	}
	if err := actor.PreloadService(sys, demo.GreeterKind); err != nil {
		return fmt.Errorf("failed to preload greeter: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received %v, draining...\n", sig)
		cancel()
	}()

	// correlationID tags this process's demo traffic in the logs, the
	// way a real deployment would tag a request with a session id.
	correlationID := uuid.NewString()
	fmt.Fprintf(os.Stderr, "actorhostd starting (session=%s)\n", correlationID)

	if err := counterKind.Send(ctx, sys, "demo", demo.CounterMsg{Add: 1}); err != nil {
		fmt.Fprintf(os.Stderr, "demo send failed: %v\n", err)
	}

	greeting, err := demo.GreeterKind.Call(ctx, sys, demo.GreetingMsg{Name: "actorhostd"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "demo greeting failed: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "greeter says: %s\n", greeting)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sys.WaitUntilStopped(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}
	fmt.Fprintln(os.Stderr, "actorhostd stopped cleanly")
	return nil
}
