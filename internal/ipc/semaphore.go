package ipc

import (
	"sync/atomic"

	"microkernel/internal/sched"
	"microkernel/internal/spinlock"
	"microkernel/internal/task"
)

// Semaphore is a counting semaphore with a FIFO wait queue, built on the
// same scheduler-parking pattern as MailboxMap.Receive. If counter is
// zero, any waiter enqueued is Blocked; if counter is positive, the
// waiter queue is empty (modulo the transient window the waiter lock
// protects).
type Semaphore struct {
	counter atomic.Int64

	waiterLock spinlock.SpinLock
	waiters    []task.Id

	scheduler *sched.Scheduler

	// YieldNow raises the software timer vector, as in MailboxMap.
	YieldNow func()
}

// NewSemaphore returns a semaphore initialized to the given non-negative
// value, parking waiters through s.
func NewSemaphore(initial int64, s *sched.Scheduler) *Semaphore {
	sem := &Semaphore{scheduler: s}
	sem.counter.Store(initial)
	return sem
}

// Value reports the current counter value. Diagnostic only; not part of
// the blocking protocol.
func (sem *Semaphore) Value() int64 {
	return sem.counter.Load()
}

// Down decrements the counter, blocking the current task until it can.
// Lock ordering when both are taken: the waiter-queue lock is acquired
// before the scheduler lock.
func (sem *Semaphore) Down() {
	for {
		if sem.tryAcquire() {
			return
		}

		self := sem.scheduler.CurrentTaskId()

		sem.waiterLock.Lock()
		sem.waiters = append(sem.waiters, self)
		sem.scheduler.Lock()
		sem.scheduler.SetState(self, task.Blocked)
		sem.scheduler.Unlock()
		sem.waiterLock.Unlock()

		if sem.YieldNow != nil {
			sem.YieldNow()
		}
		// A spurious wake (the counter raced back to zero before this
		// task's turn) simply loops back to tryAcquire and re-blocks.
	}
}

// tryAcquire attempts the optimistic compare-and-swap from v>0 to v-1.
func (sem *Semaphore) tryAcquire() bool {
	for {
		v := sem.counter.Load()
		if v <= 0 {
			return false
		}
		if sem.counter.CompareAndSwap(v, v-1) {
			return true
		}
	}
}

// Up increments the counter and, if a task is waiting, wakes the one at
// the head of the FIFO.
func (sem *Semaphore) Up() {
	sem.counter.Add(1)

	sem.waiterLock.Lock()
	if len(sem.waiters) > 0 {
		woken := sem.waiters[0]
		sem.waiters = sem.waiters[1:]

		sem.scheduler.Lock()
		sem.scheduler.SetState(woken, task.Ready)
		sem.scheduler.Unlock()
	}
	sem.waiterLock.Unlock()
}
