// Package goroutine launches background work that must not crash the process.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// SafeGo runs fn in a new goroutine. A returned error is logged as a warning;
// a panic is recovered and logged with its stack.
func SafeGo(log logger.Interface, name string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		if err := fn(); err != nil {
			log.Warnw("background task failed", "goroutine", name, "error", err)
		}
	}()
}
