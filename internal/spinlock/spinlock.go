// Package spinlock provides the single mutual-exclusion primitive this
// kernel uses for every shared structure: the scheduler, the mailbox map,
// the semaphore's waiter queue, and the console writer. A
// blocking mutex is the wrong tool here — the timer interrupt handler
// touches the scheduler's lock from interrupt context, where there is no
// scheduler to park against yet. A spinlock that busy-waits on a single
// atomic flag is the only primitive that works before and after
// scheduling has begun, on a single CPU.
package spinlock

import "sync/atomic"

// SpinLock is a test-and-set lock safe for use from both task context and
// the timer interrupt handler. The zero value is unlocked.
type SpinLock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired.
func (l *SpinLock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		// Single CPU, no SMP backoff needed; just retry.
	}
}

// Unlock releases the lock. The caller must hold it.
func (l *SpinLock) Unlock() {
	l.held.Store(false)
}

// TryLock attempts to acquire the lock without spinning, reporting success.
func (l *SpinLock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}
