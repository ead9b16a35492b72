package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kafka2i/kafka2i/cmd"
)

var (
	version = "0.4.0"
)

func main() {
	// SIGTERM stops the UI and the refresh loop through the command context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	err := cmd.Execute(ctx, version)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kafka2i: %v\n", err)
		os.Exit(1)
	}
}
