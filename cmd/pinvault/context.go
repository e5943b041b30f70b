package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/TheMichaelB/pinvault/internal/events"
)

var (
	cmdCtx    context.Context
	cmdCancel context.CancelFunc
)

// commandContext returns the per-run context. It carries the logger and
// an operation ID, and is canceled on interrupt.
func commandContext() context.Context {
	if cmdCtx != nil {
		return cmdCtx
	}

	ctx := events.WithOperationID(context.Background(), uuid.NewString())
	if logger != nil {
		ctx = events.WithLogger(ctx, logger)
	}
	cmdCtx, cmdCancel = signal.NotifyContext(ctx, os.Interrupt)
	return cmdCtx
}

func releaseContext() {
	if cmdCancel != nil {
		cmdCancel()
	}
	cmdCtx, cmdCancel = nil, nil
}
