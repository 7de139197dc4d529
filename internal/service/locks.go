package service

import (
	"context"
	"sync"
)

// roomLocks serializes work per room while leaving other rooms alone.
// Entries are reference counted and removed once nobody waits on them.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	ch   chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// acquire blocks until the room is free or ctx is done
func (l *roomLocks) acquire(ctx context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	rl, ok := l.locks[roomID]
	if !ok {
		rl = &roomLock{ch: make(chan struct{}, 1)}
		l.locks[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-rl.ch
				l.put(roomID, rl)
			})
		}, nil
	case <-ctx.Done():
		l.put(roomID, rl)
		return nil, ctx.Err()
	}
}

func (l *roomLocks) put(roomID string, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, roomID)
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
