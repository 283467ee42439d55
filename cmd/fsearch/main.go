// Package main provides the entry point for the fsearch CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aman-CERP/fsearch/cmd/fsearch/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx, os.Stderr)
	stop()
	os.Exit(code)
}
