package aura

// Watch subscribes to state changes. The channel receives the current state
// immediately and then the latest state after every change; a slow reader only
// misses intermediate states, never the newest one. Call cancel to unsubscribe.
// The channel is closed by cancel or Engine.Close.
func (e *Engine) Watch() (<-chan State, func()) {
	e.mustProvisioned()
	ch := make(chan State, 1)

	e.watchMu.Lock()
	if e.closed {
		e.watchMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if e.watchers == nil {
		e.watchers = make(map[uint64]chan State)
	}
	id := e.nextWatch
	e.nextWatch++
	e.watchers[id] = ch
	// Prime under watchMu so a concurrent publish cannot slip in ahead of it.
	ch <- e.State()
	e.watchMu.Unlock()

	cancel := func() {
		e.watchMu.Lock()
		defer e.watchMu.Unlock()
		if c, ok := e.watchers[id]; ok {
			delete(e.watchers, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish hands st to every watcher, replacing an unread older state.
func (e *Engine) publish(st State) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	for _, ch := range e.watchers {
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func (e *Engine) closeWatchers() {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	e.closed = true
	for id, ch := range e.watchers {
		delete(e.watchers, id)
		close(ch)
	}
}
