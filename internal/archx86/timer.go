//go:build amd64 && kernel

package archx86

import "microkernel/internal/sched"

// Scheduler is wired by the kernel entry point before interrupts are
// enabled. Until this is set, timerHandler only acknowledges the PIC.
var Scheduler *sched.Scheduler

// timerHandler runs on every timer IRQ: acknowledge the PIC first so a
// slow handler never holds off the next tick, then ask the scheduler for
// the next task and switch to it. The scheduler lock is dropped before
// ContextSwitch runs since the incoming task's first resumable
// instruction may itself need to acquire it.
func timerHandler() {
	NotifyEOI(picTimerVector)

	if Scheduler == nil {
		return
	}

	Scheduler.Lock()
	current, next, ok := Scheduler.Schedule()
	Scheduler.Unlock()
	if !ok {
		return
	}
	ContextSwitch(current, next)
}

// YieldNow raises the timer vector in software, giving the current task
// a voluntary way to hand off the CPU without waiting for the next real
// tick. Mailboxes and the semaphore call this while a task is blocked.
func YieldNow() {
	softTimerInterrupt()
}

//go:noescape
func softTimerInterrupt()
