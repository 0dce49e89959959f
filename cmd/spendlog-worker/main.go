package main

import (
	"context"
	"fmt"
	"os"

	"spendlog/internal/cli"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := cli.RunWorker(ctx, os.Getenv("SPENDLOG_ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, "spendlog-worker:", err)
		os.Exit(1)
	}
}
