package archx86

// Multiboot header fields. This file has no privileged or freestanding-only
// content — it's just integer arithmetic over fixed constants — so it
// builds and tests on any host, unlike most of this package.
const (
	MultibootMagic = 0x1BADB002
	multibootFlags = 0
)

// MultibootChecksum returns the value that, added to magic and flags,
// must sum to zero mod 2^32 — the field the loader checks before trusting
// the rest of the header.
func MultibootChecksum(magic, flags uint32) uint32 {
	return uint32(0) - magic - flags
}

// MultibootHeader is the 12-byte header the boot trampoline places in its
// own section so a Multiboot-compliant loader finds and validates it
// before jumping to the kernel's entry point.
type MultibootHeader struct {
	Magic    uint32
	Flags    uint32
	Checksum uint32
}

// NewMultibootHeader builds the header this kernel ships: no boot modules,
// no memory-map request beyond what Multiboot always hands back, and no
// non-default alignment demands.
func NewMultibootHeader() MultibootHeader {
	return MultibootHeader{
		Magic:    MultibootMagic,
		Flags:    multibootFlags,
		Checksum: MultibootChecksum(MultibootMagic, multibootFlags),
	}
}
