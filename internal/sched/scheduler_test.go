package sched

import (
	"testing"

	"microkernel/internal/task"
)

func newTestTask(entry uintptr) *task.Task {
	return task.New(entry, 0x1000*uintptr(entry+1), 0x1000, 0)
}

func TestScheduleSingleTaskBootsOnce(t *testing.T) {
	s := New()
	tk := newTestTask(1)
	s.AddTask(tk)

	cur, next, ok := s.Schedule()
	if !ok {
		t.Fatalf("Schedule() on a single Ready task should succeed (initial boot case)")
	}
	if cur != next {
		t.Fatalf("single-task schedule should return the same context pointer twice")
	}
	if tk.State != task.Running {
		t.Fatalf("task state = %v, want Running", tk.State)
	}

	// Now that the only task is Running, scheduling again must fail.
	if _, _, ok := s.Schedule(); ok {
		t.Fatalf("Schedule() with the only task Running should return ok=false")
	}
}

func TestScheduleRoundRobinOrder(t *testing.T) {
	s := New()
	a := newTestTask(1)
	b := newTestTask(2)
	c := newTestTask(3)
	s.AddTask(a)
	s.AddTask(b)
	s.AddTask(c)

	// a is implicitly "current" at boot; first schedule should pick b.
	a.State = task.Running
	_, _, ok := s.Schedule()
	if !ok {
		t.Fatalf("Schedule() should find a Ready task")
	}
	if b.State != task.Running {
		t.Fatalf("expected b to become Running, got a=%v b=%v c=%v", a.State, b.State, c.State)
	}
	if a.State != task.Ready {
		t.Fatalf("expected a to become Ready after being preempted, got %v", a.State)
	}

	_, _, ok = s.Schedule()
	if !ok || c.State != task.Running {
		t.Fatalf("expected c to become Running next, got a=%v b=%v c=%v", a.State, b.State, c.State)
	}

	_, _, ok = s.Schedule()
	if !ok || a.State != task.Running {
		t.Fatalf("expected round robin to wrap back to a, got a=%v b=%v c=%v", a.State, b.State, c.State)
	}
}

func TestScheduleSkipsBlockedTasks(t *testing.T) {
	s := New()
	a := newTestTask(1)
	b := newTestTask(2)
	c := newTestTask(3)
	s.AddTask(a)
	s.AddTask(b)
	s.AddTask(c)

	a.State = task.Running
	b.State = task.Blocked

	_, _, ok := s.Schedule()
	if !ok || c.State != task.Running {
		t.Fatalf("expected blocked b to be skipped in favor of c, got a=%v b=%v c=%v", a.State, b.State, c.State)
	}
	// a was Running, demoted to Ready; b stays Blocked (untouched).
	if a.State != task.Ready {
		t.Fatalf("a should be Ready after being preempted, got %v", a.State)
	}
	if b.State != task.Blocked {
		t.Fatalf("b should remain Blocked, got %v", b.State)
	}
}

func TestScheduleReturnsFalseWhenNoneReady(t *testing.T) {
	s := New()
	a := newTestTask(1)
	b := newTestTask(2)
	s.AddTask(a)
	s.AddTask(b)

	a.State = task.Running
	b.State = task.Blocked

	if _, _, ok := s.Schedule(); ok {
		t.Fatalf("Schedule() should return ok=false when no other task is Ready")
	}
}

func TestScheduleProgressWithinNCalls(t *testing.T) {
	// Every Ready task is eventually selected within N calls to
	// Schedule(), for N non-blocking tasks.
	s := New()
	const n = 5
	tasks := make([]*task.Task, n)
	for i := range tasks {
		tasks[i] = newTestTask(uintptr(i))
		s.AddTask(tasks[i])
	}
	tasks[0].State = task.Running

	seenRunning := make(map[task.Id]bool)
	for i := 0; i < n; i++ {
		_, _, ok := s.Schedule()
		if !ok {
			t.Fatalf("Schedule() failed on call %d", i)
		}
		seenRunning[s.CurrentTaskId()] = true
	}
	if len(seenRunning) != n {
		t.Fatalf("expected all %d tasks to have run within %d calls, saw %d", n, n, len(seenRunning))
	}
}

func TestAddTaskNotifiesOnAddTask(t *testing.T) {
	s := New()
	var notified []task.Id
	s.OnAddTask = func(id task.Id) {
		notified = append(notified, id)
	}
	tk := newTestTask(1)
	s.AddTask(tk)

	if len(notified) != 1 || notified[0] != tk.ID {
		t.Fatalf("OnAddTask hook not invoked with new task id: %+v", notified)
	}
}

func TestSetStateAndStateOf(t *testing.T) {
	s := New()
	tk := newTestTask(1)
	s.AddTask(tk)

	if !s.SetState(tk.ID, task.Blocked) {
		t.Fatalf("SetState on known id should succeed")
	}
	got, ok := s.StateOf(tk.ID)
	if !ok || got != task.Blocked {
		t.Fatalf("StateOf() = %v, %v; want Blocked, true", got, ok)
	}

	if s.SetState(task.Id(999999), task.Ready) {
		t.Fatalf("SetState on unknown id should fail")
	}
}
