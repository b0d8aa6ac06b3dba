package booking

import "sync"

// machineLocks hands out one mutex per machine id so the availability check
// and the order write of a booking attempt run without a concurrent attempt
// on the same machine interleaving between them. Locks are never evicted;
// the fleet of physical machines is small and stable.
type machineLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMachineLocks() *machineLocks {
	return &machineLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *machineLocks) acquire(machineID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[machineID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[machineID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
