package safe

import (
	"runtime/debug"

	"syncchat/logger"
)

// Go runs f in a goroutine and turns a panic into an error log instead of
// a process crash. Every long-lived goroutine in the gateway starts here.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[panic] %s: %v\n%s", name, r, debug.Stack())
			}
		}()
		f()
	}()
}
