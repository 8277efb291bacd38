package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"scoreboard/cmd"
	"scoreboard/database"

	log "github.com/sirupsen/logrus"
)

const usage = `usage:
  scoreboard score [--rebuild]
  scoreboard rescore <player>...
  scoreboard migrate [up|down [steps]|status]`

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	opts, err := parseRunOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A signal stops the run at the next store call; games already marked scored stay scored
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, stopping scoring run...")
		cancel()
	}()

	if err := cmd.Run(ctx, opts); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func parseRunOptions(args []string) (cmd.Options, error) {
	if len(args) == 0 {
		return cmd.Options{}, nil
	}

	switch args[0] {
	case "score":
		opts := cmd.Options{}
		for _, arg := range args[1:] {
			if arg != "--rebuild" {
				return opts, fmt.Errorf("unknown flag for score: %s", arg)
			}
			opts.Rebuild = true
		}
		return opts, nil
	case "rescore":
		if len(args) < 2 {
			return cmd.Options{}, fmt.Errorf("rescore needs at least one player name")
		}
		return cmd.Options{Rescore: args[1:]}, nil
	default:
		return cmd.Options{}, fmt.Errorf("unknown command: %s", args[0])
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: scoreboard migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
