package archx86

import "testing"

func TestMultibootChecksumSumsToZero(t *testing.T) {
	h := NewMultibootHeader()
	sum := h.Magic + h.Flags + h.Checksum
	if sum != 0 {
		t.Fatalf("magic+flags+checksum = %#x, want 0", sum)
	}
}

func TestMultibootHeaderUsesDocumentedMagic(t *testing.T) {
	h := NewMultibootHeader()
	if h.Magic != 0x1BADB002 {
		t.Fatalf("magic = %#x, want 0x1BADB002", h.Magic)
	}
}
