// Command actorhostd boots an actor.System, preloads whatever services a
// config file names, and runs a small demo workload: its run subcommand
// waits for a shutdown signal that drains every actor and service in
// flight, and its stats subcommand prints a Stats() snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/actorhost/runtime/cmd/actorhostd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
