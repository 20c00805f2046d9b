package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context canceled on SIGINT or SIGTERM. The
// ask and search commands pass it to the engine so an interrupted run
// abandons the in-flight provider call instead of waiting out its timeout.
// The handler stays installed for the life of the process.
func SetupSignalHandler() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
