// Command schemarepl reads queries from stdin, checks them against a compiled
// schema and calls the matching remote functions.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/schemarepl/internal/cli"
)

func main() {
	// The first signal cancels the in-flight call and ends the session at
	// the next line; a second one gets the default behavior.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)

	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
