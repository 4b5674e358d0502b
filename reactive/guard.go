package reactive

import "sync"

// Guard applies a side effect while a boolean cell holds true, such as
// locking page scroll while a dropdown is open.
type Guard struct {
	mu          sync.Mutex
	off         func()
	unsubscribe func()
	released    bool
}

// Bind runs on each time cond is set to true and off each time it is set
// to false. Like a watcher, it does not act on the current value.
func Bind(cond *Cell[bool], on, off func()) *Guard {
	g := &Guard{off: off}
	g.unsubscribe = cond.Subscribe(func(active bool) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.released {
			return
		}
		if active {
			on()
		} else {
			off()
		}
	})
	return g
}

// Release stops watching the cell and runs off once, so teardown always
// leaves the side effect undone. Safe to call multiple times.
func (g *Guard) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	g.mu.Unlock()

	g.unsubscribe()
	g.off()
}
