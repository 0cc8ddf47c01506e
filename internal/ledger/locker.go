package ledger

import (
	"context"
	"sync"

	perr "github.com/xtding233/progression-core/internal/errors"
)

// LockMode decides what a contended Acquire does.
type LockMode string

const (
	// LockReject fails fast with ErrBusy.
	LockReject LockMode = "reject"
	// LockWait queues behind the current holder until ctx ends.
	LockWait LockMode = "wait"
)

// Locker serializes operations per player id. Different ids never contend.
type Locker struct {
	mode LockMode

	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocker creates a Locker. An empty mode means LockReject.
func NewLocker(mode LockMode) *Locker {
	if mode == "" {
		mode = LockReject
	}
	return &Locker{mode: mode, entries: make(map[string]*lockEntry)}
}

// Acquire takes the lock for id and returns its release func.
func (l *Locker) Acquire(ctx context.Context, id string) (func(), error) {
	e := l.ref(id)

	select {
	case e.sem <- struct{}{}:
		return l.releaser(id, e), nil
	default:
	}
	if l.mode != LockWait {
		l.unref(id, e)
		return nil, perr.ErrBusy.WithMetadata("player_id", id)
	}

	select {
	case e.sem <- struct{}{}:
		return l.releaser(id, e), nil
	case <-ctx.Done():
		l.unref(id, e)
		return nil, perr.ErrBusy.WithMetadata("player_id", id, "cause", ctx.Err().Error())
	}
}

// Held reports how many ids currently have a holder or waiter.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locker) ref(id string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	return e
}

func (l *Locker) unref(id string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

func (l *Locker) releaser(id string, e *lockEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(id, e)
		})
	}
}
