// Command reminderctl runs reminder maintenance jobs against the configured
// database: dispatching due reminders, topping up the rolling window,
// regenerating a schedule and printing adherence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"allie-backend/internal/bootstrap"
	"allie-backend/internal/shared/config"
	"allie-backend/internal/shared/telemetry"
)

func main() {
	root := newRootCmd(func() (*bootstrap.App, error) {
		return bootstrap.Build(config.Load())
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	telemetry.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
