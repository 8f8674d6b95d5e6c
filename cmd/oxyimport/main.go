// Package main is the entry point for the oxyimport command.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-editor/cmd/oxyimport/commands"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New()
	cli.SetArgs(args)
	if err := cli.Execute(ctx); err != nil {
		if !errors.Is(err, commands.ErrImportFailed) {
			_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		}
		return 1
	}
	return 0
}
