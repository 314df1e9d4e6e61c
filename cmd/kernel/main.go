// Command kernel is the bootable entry point. The Multiboot trampoline
// (entry_amd64.s) stores the loader-provided info pointer and jumps
// straight to main with no Go runtime initialization performed first, so
// nothing here may assume goroutines, deferred GC work, or allocation
// before the heap is mapped.
//go:build amd64 && kernel

package main

import (
	"unsafe"

	"microkernel/internal/archx86"
	"microkernel/internal/console"
	"microkernel/internal/ipc"
	"microkernel/internal/memory"
	"microkernel/internal/panicx"
	"microkernel/internal/registry"
	"microkernel/internal/sched"
	"microkernel/internal/task"
)

const taskStackSize = 16 * 1024

var (
	scheduler  *sched.Scheduler
	mailboxes  *ipc.MailboxMap
	services   *registry.Registry
	sharedSem  *ipc.Semaphore
	kernelHeap *memory.Heap
)

// pingEntry and pongEntry are the two demonstration tasks wired at boot:
// ping sends pong a message and blocks on its own mailbox for the reply;
// pong receives, prints, replies, and signals the shared semaphore.
func pingEntry() {
	self := scheduler.CurrentTaskId()
	pongID, _ := services.Lookup("pong")
	for {
		mailboxes.Send(pongID, ipc.Message(42))
		reply := mailboxes.Receive(self)
		console.Print("ping: received reply: ")
		console.PrintDec(uint64(reply))
		console.Print("\n")
		sharedSem.Down()
	}
}

func pongEntry() {
	self := scheduler.CurrentTaskId()
	pingID, _ := services.Lookup("ping")
	for {
		msg := mailboxes.Receive(self)
		console.Print("pong: received message: ")
		console.PrintDec(uint64(msg))
		console.Print("\n")
		mailboxes.Send(pingID, ipc.Message(43))
		sharedSem.Up()
	}
}

func allocStack() uintptr {
	ptr, ok := kernelHeap.Alloc(taskStackSize)
	if !ok {
		panicx.Halt("kernel heap exhausted allocating a task stack")
	}
	return uintptr(ptr)
}

// main runs once, on the boot trampoline's stack, with interrupts still
// disabled. It never returns: the final context switch hands control to
// the first scheduled task, and from then on the timer interrupt is what
// drives forward progress.
func main() {
	console.ClearScreen()
	console.Print("microkernel booting\n")

	memoryMap := parseMultibootMemoryMap(multibootInfoPtr)

	frameAllocator := memory.NewFrameAllocator(memoryMap)
	mapper := archx86.NewOffsetMapper(frameAllocator)

	var err error
	kernelHeap, err = memory.MapHeap(mapper, frameAllocator, memory.HeapStart, memory.HeapSize)
	if err != nil {
		panicx.Halt("heap mapping failed")
	}

	scheduler = sched.New()
	mailboxes = ipc.NewMailboxMap(scheduler)
	mailboxes.YieldNow = archx86.YieldNow
	services = registry.New()
	sharedSem = ipc.NewSemaphore(0, scheduler)
	sharedSem.YieldNow = archx86.YieldNow

	pongStack := allocStack()
	pong := task.New(taskEntryAddr(pongEntry), pongStack, taskStackSize, readActivePageTable())
	scheduler.AddTask(pong)
	services.Register("pong", pong.ID)

	pingStack := allocStack()
	ping := task.New(taskEntryAddr(pingEntry), pingStack, taskStackSize, readActivePageTable())
	scheduler.AddTask(ping)
	services.Register("ping", ping.ID)

	archx86.Scheduler = scheduler
	archx86.KeyboardSink = func(scancode uint8) {
		console.Print("key 0x")
		console.PrintHex64(uint64(scancode))
		console.Print("\n")
	}

	archx86.InitIDT()
	archx86.RemapPIC()

	scheduler.Lock()
	var bootContext task.Context
	_, next, ok := scheduler.Schedule()
	scheduler.Unlock()
	if !ok {
		panicx.Halt("no task ready at boot")
	}

	enableInterrupts()
	archx86.ContextSwitch(&bootContext, next)

	for {
	}
}

//go:noescape
func taskEntryAddr(fn func()) uintptr

//go:noescape
func readActivePageTable() uintptr

//go:noescape
func enableInterrupts()

// multibootInfoPtr is written by the trampoline before it calls main: on
// entry the Multiboot loader leaves the physical address of its info
// structure in EBX, which the trampoline stashes here since Go's entry
// point takes no arguments.
var multibootInfoPtr uintptr

// multiboot info layout (partial): flags at offset 0, mem_lower at 4,
// mem_upper at 8, both in KiB, valid when flags bit 0 is set.
const multibootFlagMem = 1 << 0

// parseMultibootMemoryMap builds a memory map from the basic mem_lower/
// mem_upper fields every Multiboot loader provides, rather than walking
// the optional full mmap tag: low conventional memory below 640 KiB,
// then extended memory starting at 1 MiB running for mem_upper KiB.
func parseMultibootMemoryMap(infoPtr uintptr) memory.MemoryMap {
	flags := *(*uint32)(unsafe.Pointer(infoPtr))
	if flags&multibootFlagMem == 0 {
		panicx.Halt("multiboot info has no memory fields")
	}
	memLowerKB := *(*uint32)(unsafe.Pointer(infoPtr + 4))
	memUpperKB := *(*uint32)(unsafe.Pointer(infoPtr + 8))

	return memory.MemoryMap{
		{Start: 0, End: uint64(memLowerKB) * 1024, Type: memory.Usable},
		{Start: 1 << 20, End: (1 << 20) + uint64(memUpperKB)*1024, Type: memory.Usable},
	}
}
