// Package sched implements round-robin selection among a fixed set of
// tasks and the state transitions that go with it. It owns no locking
// policy beyond the single spinlock used for shared kernel structures;
// callers (the timer path, send/receive, the semaphore) are responsible
// for dropping that lock before any actual context switch.
package sched

import (
	"microkernel/internal/spinlock"
	"microkernel/internal/task"
)

// Scheduler owns an ordered sequence of tasks and the index naming the
// current slot. Exactly one task has state Running once scheduling has
// begun, and the current index always names it.
type Scheduler struct {
	lock  spinlock.SpinLock
	tasks []*task.Task

	// current names the slot last returned as the outgoing/incoming task.
	// Before the first successful Schedule it is 0 and has no particular
	// meaning; the first Schedule simply starts its scan at slot 1.
	current int

	// OnAddTask, if set, is invoked with the id of every task appended via
	// AddTask. The kernel wires this to the mailbox map's allocator so that
	// a task gets a mailbox the moment it joins the scheduler, without
	// sched importing ipc.
	OnAddTask func(task.Id)
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Lock exposes the scheduler's spinlock so that callers outside this
// package (the timer path, send/receive, the semaphore) can hold it across
// the handful of operations the locking discipline requires them to
// perform under it, and must release before switching or yielding.
func (s *Scheduler) Lock() { s.lock.Lock() }

// Unlock releases the scheduler's spinlock.
func (s *Scheduler) Unlock() { s.lock.Unlock() }

// AddTask appends t to the scheduler and notifies OnAddTask, if set. Must
// be called before interrupts are enabled, or with the scheduler lock held.
func (s *Scheduler) AddTask(t *task.Task) {
	s.tasks = append(s.tasks, t)
	if s.OnAddTask != nil {
		s.OnAddTask(t.ID)
	}
}

// Len reports the number of tasks currently installed.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// CurrentTaskId returns the id of the task named by the current slot. The
// caller must hold the scheduler lock, or be certain no concurrent
// Schedule/AddTask can race (e.g. single-threaded boot code).
func (s *Scheduler) CurrentTaskId() task.Id {
	return s.tasks[s.current].ID
}

// find locates the task with the given id, or nil. Caller must hold the
// lock.
func (s *Scheduler) find(id task.Id) *task.Task {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// SetState transitions the task named by id to state newState. Used by the
// mailbox and semaphore implementations to park and wake tasks. The caller
// must hold the scheduler lock. Reports whether the task was found.
func (s *Scheduler) SetState(id task.Id, newState task.State) bool {
	t := s.find(id)
	if t == nil {
		return false
	}
	t.State = newState
	return true
}

// StateOf reports the current state of the task named by id. The caller
// must hold the scheduler lock.
func (s *Scheduler) StateOf(id task.Id) (task.State, bool) {
	t := s.find(id)
	if t == nil {
		return 0, false
	}
	return t.State, true
}

// Schedule selects the next Ready task by scanning forward from
// (current+1) mod N in cyclic order, stopping at the first Ready task
// found or when the scan wraps back to current. On success it updates
// current, transitions the outgoing task from Running to Ready (leaving a
// Blocked outgoing task Blocked), transitions the incoming task to
// Running, and returns pointers to both contexts plus ok=true. If no Ready
// task is found, ok is false and the caller must not switch. With N==0 ok
// is always false; with N==1 the only task is selected (into itself)
// whenever it is not already Running, and ok is false once it is.
//
// The caller must hold the scheduler lock for the duration of this call,
// and must release it before performing the actual context switch.
func (s *Scheduler) Schedule() (current *task.Context, next *task.Context, ok bool) {
	n := len(s.tasks)
	if n == 0 {
		// The kernel never boots with zero tasks; nothing to select.
		return nil, nil, false
	}

	if n == 1 {
		// The only-task case: there is no "other" slot to scan forward to,
		// so the general loop below would immediately wrap to current and
		// never fire. This is the initial-boot special case: a single
		// not-yet-run task is selectable exactly once, into itself.
		only := s.tasks[0]
		if only.State == task.Running {
			return nil, nil, false
		}
		only.State = task.Running
		return &only.Context, &only.Context, true
	}

	outgoingIdx := s.current
	for step := 1; step < n; step++ {
		j := (outgoingIdx + step) % n
		if s.tasks[j].State == task.Ready {
			outgoing := s.tasks[outgoingIdx]
			incoming := s.tasks[j]

			if outgoing.State == task.Running {
				outgoing.State = task.Ready
			}
			incoming.State = task.Running
			s.current = j

			return &outgoing.Context, &incoming.Context, true
		}
	}

	return nil, nil, false
}
