package memory

import "errors"

// PageFlags mirrors the present/writable bits required on every heap
// page mapping.
type PageFlags uint

const (
	Present PageFlags = 1 << iota
	Writable
)

// ErrFrameExhausted is returned by MapHeap when the frame allocator runs
// out of frames partway through mapping the heap window. This is a
// boot-time hard error; the kernel entry treats it as fatal.
var ErrFrameExhausted = errors.New("memory: frame allocator exhausted while mapping heap")

// Mapper installs mappings into the kernel's single active top-level page
// table. The concrete amd64 implementation (backed by real page-table
// walks and a CR3 read) lives in internal/archx86 so this package stays
// architecture-free and host-testable; tests here use a fake that just
// records calls.
type Mapper interface {
	// MapTo installs page -> frame with the given flags. Returns an error
	// if the mapping cannot be installed (e.g. an intermediate table
	// couldn't be allocated).
	MapTo(page uintptr, frame Frame, flags PageFlags) error

	// Flush invalidates any stale TLB entry for page after MapTo.
	Flush(page uintptr)
}

// MapHeap installs a mapping, backed by freshly allocated frames, for
// every 4 KiB page in [heapStart, heapStart+heapSize), then initializes a
// Heap over that range. On frame-allocation exhaustion it returns
// ErrFrameExhausted without initializing the heap — the caller surfaces
// this as a boot-time hard error.
func MapHeap(m Mapper, fa *FrameAllocator, heapStart, heapSize uintptr) (*Heap, error) {
	for page := heapStart; page < heapStart+heapSize; page += FrameSize {
		frame, ok := fa.Allocate()
		if !ok {
			return nil, ErrFrameExhausted
		}
		if err := m.MapTo(page, frame, Present|Writable); err != nil {
			return nil, err
		}
		m.Flush(page)
	}
	return NewHeap(heapStart, heapSize), nil
}
