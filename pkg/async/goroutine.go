// Package async provides safe goroutine helpers for fire-and-forget
// background tasks such as last-login bookkeeping.
package async

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"
)

// SafeGo executes a function in a goroutine with a timeout, panic recovery
// and error logging. Use this instead of a bare `go func()` so a panicking
// background task cannot crash the process.
//
// The task runs on a fresh context, detached from any request context, so it
// survives the response being written.
func SafeGo(timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in background task",
					"task", taskName,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()

		if err := fn(ctx); err != nil {
			slog.Error("background task failed", "task", taskName, "error", err)
		}
	}()
}
