package exception

import (
	"runtime/debug"

	"github.com/openfinality/chainquery/logx"
)

// SafeGo runs fn on its own goroutine and converts a panic into an error
// log instead of a process crash.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logx.Error("PANIC", "Panic in: ", name, " ", r, " ", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
