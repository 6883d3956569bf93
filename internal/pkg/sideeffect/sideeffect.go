// Package sideeffect runs best-effort work whose failure must not fail the
// surrounding operation.
package sideeffect

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Run calls fn and logs, but never returns, its error or panic.
func Run(ctx context.Context, log *slog.Logger, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "side effect panicked",
				slog.String("side_effect", name),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	if err := fn(ctx); err != nil {
		log.WarnContext(ctx, "side effect failed",
			slog.String("side_effect", name),
			slog.String("error", err.Error()),
		)
	}
}
