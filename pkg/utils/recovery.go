package utils

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// RecoverFn is a function that handles a recovered panic
type RecoverFn func(r interface{}, stack []byte)

// SafeGo executes the given function in a goroutine with panic recovery
func SafeGo(fn func(), onPanic RecoverFn) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				if onPanic != nil {
					onPanic(r, stack)
					return
				}
				logPanic(context.Background(), "goroutine", r, stack)
			}
		}()
		fn()
	}()
}

// WrapWithContextRecovery converts a panic in fn into an error
func WrapWithContextRecovery(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(ctx, "wrapped call", r, debug.Stack())
				err = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		return fn(ctx)
	}
}

func logPanic(ctx context.Context, operation string, r interface{}, stack []byte) {
	log := logger.FromContextOr(ctx, logger.Log)
	if log == nil {
		fmt.Fprintf(os.Stderr, "[PANIC] Recovered from panic during %s: %v\n%s\n", operation, r, stack)
		return
	}
	log.Error(fmt.Sprintf("[panic] Recovered from panic during %s", operation),
		zap.Any("panic", r),
		zap.ByteString("stack", stack),
	)
}
