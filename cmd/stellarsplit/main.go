package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stellarsplit/cmd/stellarsplit/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := commands.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
