package ledger

import (
	"context"
	"sync"
)

// groupLocks hands out one lock per group ID. Entries are dropped once no
// goroutine holds or waits for them.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*groupLock
}

type groupLock struct {
	sem  chan struct{}
	refs int
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*groupLock)}
}

// acquire blocks until the group's lock is held or ctx is done.
// The returned func releases the lock.
func (g *groupLocks) acquire(ctx context.Context, groupID string) (func(), error) {
	g.mu.Lock()
	l, ok := g.locks[groupID]
	if !ok {
		l = &groupLock{sem: make(chan struct{}, 1)}
		g.locks[groupID] = l
	}
	l.refs++
	g.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		g.release(groupID, l)
		return nil, ctx.Err()
	}

	return func() {
		<-l.sem
		g.release(groupID, l)
	}, nil
}

func (g *groupLocks) release(groupID string, l *groupLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, groupID)
	}
}
