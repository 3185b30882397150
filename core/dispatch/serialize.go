package dispatch

import "sync"

// identityLocks serializes event processing per identity. The lock is
// held across the whole chain and handler, including suspension on
// external calls, so same-identity events never interleave.
type identityLocks struct {
	mu    sync.Mutex
	locks map[int64]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: make(map[int64]*identityLock)}
}

// Lock blocks until the identity's slot is free and returns the unlock
// function. Entries are reference counted so idle identities do not
// accumulate.
func (l *identityLocks) Lock(externalID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[externalID]
	if !ok {
		entry = &identityLock{}
		l.locks[externalID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, externalID)
		}
		l.mu.Unlock()
	}
}
