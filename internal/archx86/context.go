// Package archx86 holds the x86_64-specific primitives the rest of the
// kernel is built on: the context-switch routine, port I/O, the 8259 PIC,
// the IDT/exception vectors, and the Multiboot header. Most of this file
// set only builds for the freestanding kernel target (build tag `kernel`)
// because it touches privileged instructions or linker symbols that don't
// exist on a hosted process. There are two exceptions. ContextSwitch is
// ordinary register save/restore with no privileged instructions, so its
// struct layout is host-testable even though running it for real is not
// (see context_amd64_test.go). The Multiboot header arithmetic in
// multiboot.go is plain Go and is host-tested as well.
//go:build amd64

package archx86

import "microkernel/internal/task"

// ContextSwitch stores the caller's callee-saved registers and resume
// point into *current, then loads the same set from *next and resumes
// execution there. Implemented in context_amd64.s.
//
// It does not itself enable or disable interrupts; the caller must hold
// no lock the incoming task's first resumable instruction might
// reacquire, and the stack pointer loaded from next must belong to the
// incoming task. On the very first switch into a never-run task, next.RIP
// is the task's entry point and the stack above next.RSP is empty; that
// entry function must never return.
//
//go:noescape
func ContextSwitch(current, next *task.Context)
