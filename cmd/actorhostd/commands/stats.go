package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/actorhost/runtime/actor"
	"github.com/actorhost/runtime/internal/demo"
	"github.com/spf13/cobra"
)

var statsOutputJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run a short demo workload and print a Stats() snapshot",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(
		&statsOutputJSON, "json", false, "print the snapshot as JSON",
	)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}

	sys := actor.NewSystem()
	counterKind := demo.NewCounterKind(managerOptions(cfg)...)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := counterKind.Send(ctx, sys, "demo", demo.CounterMsg{Add: 1}); err != nil {
			return fmt.Errorf("demo send failed: %w", err)
		}
	}
	if _, err := demo.GreeterKind.Call(ctx, sys, demo.GreetingMsg{Name: "stats"}); err != nil {
		return fmt.Errorf("demo greeting failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := sys.WaitUntilStopped(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}

	snapshot := sys.Stats()
	if statsOutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	for _, a := range snapshot.Actors {
		fmt.Printf("actor  %-20s live=%d shutting_down=%t\n",
			a.Type, a.LiveProxies, a.ShuttingDown)
	}
	for _, s := range snapshot.Services {
		fmt.Printf("service %-20s inflight=%d shutting_down=%t\n",
			s.Key, s.Inflight, s.ShuttingDown)
	}
	fmt.Printf("dead letters: %d\n", sys.DeadLetterCount())

	return nil
}
