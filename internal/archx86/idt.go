//go:build amd64 && kernel

package archx86

import (
	"unsafe"

	"microkernel/internal/console"
	"microkernel/internal/panicx"
)

// idtEntry is one 16-byte IA-32e IDT gate descriptor.
type idtEntry struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

type idtPointer struct {
	limit uint16
	base  uint64
}

const (
	idtSize        = 256
	gateInterrupt  = 0x8E // present, ring 0, 32/64-bit interrupt gate
	codeSelector   = 0x08 // kernel code segment, set up by the boot GDT
)

var idt [idtSize]idtEntry

func setGate(vector int, handler uintptr) {
	idt[vector] = idtEntry{
		offsetLow:  uint16(handler),
		selector:   codeSelector,
		ist:        0,
		typeAttr:   gateInterrupt,
		offsetMid:  uint16(handler >> 16),
		offsetHigh: uint32(handler >> 32),
	}
}

// InitIDT installs handlers for the four exception vectors named as
// in-scope (breakpoint, divide-by-zero, page fault, double fault) plus
// the timer and keyboard IRQ vectors, then loads the table.
func InitIDT() {
	setGate(0, divideByZeroStub())
	setGate(3, breakpointStub())
	setGate(8, doubleFaultStub())
	setGate(14, pageFaultStub())
	setGate(picTimerVector, timerStub())
	setGate(picKeyboardVector, keyboardStub())

	ptr := idtPointer{
		limit: uint16(unsafe.Sizeof(idt) - 1),
		base:  uint64(uintptr(unsafe.Pointer(&idt[0]))),
	}
	lidt(&ptr)
}

//go:noescape
func lidt(ptr *idtPointer)

// Each of the six stubs below (idt_amd64.s) returns, as a uintptr for
// setGate, the entry point of a tiny assembly trampoline that saves the
// caller-saved registers x86-interrupt calling convention doesn't, then
// calls the matching Go handler below and IRETQs.

//go:noescape
func divideByZeroStub() uintptr

//go:noescape
func breakpointStub() uintptr

//go:noescape
func doubleFaultStub() uintptr

//go:noescape
func pageFaultStub() uintptr

//go:noescape
func timerStub() uintptr

//go:noescape
func keyboardStub() uintptr

func divideByZeroHandler() {
	panicx.Halt("divide by zero")
}

func breakpointHandler() {
	console.Print("breakpoint\n")
}

func doubleFaultHandler() {
	panicx.Halt("double fault")
}

func pageFaultHandler() {
	addr := readCR2()
	console.Print("page fault at 0x")
	console.PrintHex64(uint64(addr))
	console.Print("\n")
	panicx.Halt("page fault")
}

//go:noescape
func readCR2() uintptr

// KeyboardSink receives raw scancodes read off port 0x60 by
// keyboardHandler. Decoding scancodes into characters is out of scope;
// whatever is wired here just gets the raw byte.
var KeyboardSink func(scancode uint8)

func keyboardHandler() {
	scancode := inb(0x60)
	if KeyboardSink != nil {
		KeyboardSink(scancode)
	}
	NotifyEOI(picKeyboardVector)
}
