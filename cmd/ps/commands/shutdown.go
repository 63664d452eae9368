package commands

import "sync"

var shutdown struct {
	mu  sync.Mutex
	fns []func()
}

// onShutdown registers fn to run when the command finishes.
func onShutdown(fn func()) {
	shutdown.mu.Lock()
	defer shutdown.mu.Unlock()

	shutdown.fns = append(shutdown.fns, fn)
}

// Shutdown flushes loggers and closes connections opened by the command, in
// reverse order of registration.
func Shutdown() {
	shutdown.mu.Lock()
	fns := shutdown.fns
	shutdown.fns = nil
	shutdown.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
