// Package ipc implements the kernel's two blocking primitives built on top
// of internal/sched: per-task mailboxes (send/receive) and a counting
// semaphore (down/up). Both couple blocking and waking to scheduler state
// transitions while staying free of any architecture-specific
// dependency: yielding is expressed through an
// injected YieldNow hook so this package builds and tests on a normal host.
package ipc

import (
	"microkernel/internal/sched"
	"microkernel/internal/spinlock"
	"microkernel/internal/task"
)

// Message is the fixed-width unit mailboxes carry.
type Message uint64

// mailboxQueue is an unbounded FIFO of messages, backed by a slice read
// through a head offset; the backing array is reused from the start each
// time the queue is fully drained.
type mailboxQueue struct {
	buf  []Message
	head int
}

func (q *mailboxQueue) push(m Message) {
	q.buf = append(q.buf, m)
}

func (q *mailboxQueue) empty() bool {
	return q.head >= len(q.buf)
}

func (q *mailboxQueue) pop() (Message, bool) {
	if q.empty() {
		return 0, false
	}
	m := q.buf[q.head]
	q.head++
	// Reclaim the backing array once fully drained, instead of growing
	// without bound across the kernel's lifetime.
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	}
	return m, true
}

// MailboxMap owns every task's mailbox and the scheduler used to wake
// blocked receivers. Create one with NewMailboxMap, which wires it to
// Scheduler.OnAddTask so every task gets a mailbox the moment it is added.
type MailboxMap struct {
	lock      spinlock.SpinLock
	boxes     map[task.Id]*mailboxQueue
	scheduler *sched.Scheduler

	// YieldNow raises the software interrupt that invokes the scheduler.
	// Set by kernel wiring to internal/archx86's YieldNow; left nil in
	// tests that don't exercise the blocking path.
	YieldNow func()
}

// NewMailboxMap returns an empty mailbox map and registers its create hook
// on s so every AddTask call gets a mailbox.
func NewMailboxMap(s *sched.Scheduler) *MailboxMap {
	m := &MailboxMap{
		boxes:     make(map[task.Id]*mailboxQueue),
		scheduler: s,
	}
	s.OnAddTask = m.create
	return m
}

// create allocates an empty mailbox for id. Called under whatever lock
// AddTask is called under (boot code, single-threaded).
func (m *MailboxMap) create(id task.Id) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.boxes[id] = &mailboxQueue{}
}

// Send appends msg to receiver's FIFO and, if receiver was Blocked, marks
// it Ready. Always non-blocking; returns false only if no mailbox exists
// for receiver (mailboxes are unbounded, so capacity never causes
// failure).
func (m *MailboxMap) Send(receiver task.Id, msg Message) bool {
	m.lock.Lock()
	box, ok := m.boxes[receiver]
	if !ok {
		m.lock.Unlock()
		return false
	}
	box.push(msg)
	m.lock.Unlock()

	m.scheduler.Lock()
	if st, found := m.scheduler.StateOf(receiver); found && st == task.Blocked {
		m.scheduler.SetState(receiver, task.Ready)
	}
	m.scheduler.Unlock()

	return true
}

// Receive pops the head of self's mailbox, blocking (parking self and
// yielding to the scheduler) until a message arrives. It never fails.
func (m *MailboxMap) Receive(self task.Id) Message {
	for {
		m.lock.Lock()
		box := m.boxes[self]
		if box != nil {
			if msg, ok := box.pop(); ok {
				m.lock.Unlock()
				return msg
			}
		}
		m.lock.Unlock()

		m.scheduler.Lock()
		m.scheduler.SetState(self, task.Blocked)
		m.scheduler.Unlock()

		if m.YieldNow != nil {
			m.YieldNow()
		}
	}
}

// Empty reports whether id's mailbox currently holds no messages. Used by
// tests verifying "send then receive leaves the mailbox empty".
func (m *MailboxMap) Empty(id task.Id) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	box, ok := m.boxes[id]
	return !ok || box.empty()
}
