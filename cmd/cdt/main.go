// Command cdt fetches chemical compound summaries from the PDBe graph API,
// caches them in a relational table and prints them as fixed-width tables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

const version = "1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, &app{})
	stop()
	if err != nil {
		os.Exit(1)
	}
}
