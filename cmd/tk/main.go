package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"task-tracker/internal/cli"
)

func main() {
	factory := NewStoreFactory(getEnvironment())
	root := cli.NewRootCommand(factory.API)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
