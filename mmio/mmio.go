// Package mmio provides bounds-checked views over memory-mapped register
// blocks and peripheral SRAM windows.
//
// A [Block] is constructed once, either from a byte slice (simulation and
// tests) or from a validated base address and size on target hardware.
// All access goes through checked read/write accessors; raw pointers are
// never exposed. Register offsets are compile-time constants, so an
// out-of-range access is a programming bug and panics rather than
// returning an error.
package mmio

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Block is a bounds-checked view of a contiguous memory-mapped region.
// 32-bit and 16-bit quantities are little-endian in the backing store,
// matching the bus byte order of the target.
type Block struct {
	mem []byte
}

// NewBlock creates a block backed by the given byte slice. Intended for
// simulated register banks in tests and host-side tooling.
func NewBlock(mem []byte) *Block {
	return &Block{mem: mem}
}

// AtAddr creates a block over size bytes of memory starting at base.
// Used on target hardware where base is a peripheral register block or
// SRAM window address fixed by the memory map.
func AtAddr(base uintptr, size int) *Block {
	if base == 0 || size <= 0 {
		panic("mmio: invalid block address or size")
	}
	return &Block{mem: unsafe.Slice((*byte)(unsafe.Pointer(base)), size)}
}

// Size returns the block size in bytes.
func (b *Block) Size() int {
	return len(b.mem)
}

func (b *Block) check(offset, width int) {
	if offset < 0 || offset+width > len(b.mem) {
		panic(fmt.Sprintf("mmio: access at 0x%x width %d outside block of %d bytes",
			offset, width, len(b.mem)))
	}
}

// Read32 returns the 32-bit register at offset.
func (b *Block) Read32(offset int) uint32 {
	b.check(offset, 4)
	return binary.LittleEndian.Uint32(b.mem[offset:])
}

// Write32 stores value into the 32-bit register at offset.
func (b *Block) Write32(offset int, value uint32) {
	b.check(offset, 4)
	binary.LittleEndian.PutUint32(b.mem[offset:], value)
}

// SetBits32 sets the given bits in the 32-bit register at offset.
func (b *Block) SetBits32(offset int, bits uint32) {
	b.Write32(offset, b.Read32(offset)|bits)
}

// ClearBits32 clears the given bits in the 32-bit register at offset.
func (b *Block) ClearBits32(offset int, bits uint32) {
	b.Write32(offset, b.Read32(offset)&^bits)
}

// HasBits32 reports whether all given bits are set in the 32-bit register
// at offset.
func (b *Block) HasBits32(offset int, bits uint32) bool {
	return b.Read32(offset)&bits == bits
}

// ReplaceBits32 replaces the field selected by mask (pre-shifted) with
// value<<shift in the 32-bit register at offset.
func (b *Block) ReplaceBits32(offset int, mask uint32, shift uint, value uint32) {
	v := b.Read32(offset)
	v = (v &^ mask) | ((value << shift) & mask)
	b.Write32(offset, v)
}

// Field32 extracts the field selected by mask and shift from the 32-bit
// register at offset.
func (b *Block) Field32(offset int, mask uint32, shift uint) uint32 {
	return (b.Read32(offset) & mask) >> shift
}

// Read16 returns the 16-bit quantity at offset.
func (b *Block) Read16(offset int) uint16 {
	b.check(offset, 2)
	return binary.LittleEndian.Uint16(b.mem[offset:])
}

// Write16 stores value into the 16-bit quantity at offset.
func (b *Block) Write16(offset int, value uint16) {
	b.check(offset, 2)
	binary.LittleEndian.PutUint16(b.mem[offset:], value)
}

// Read8 returns the byte register at offset.
func (b *Block) Read8(offset int) uint8 {
	b.check(offset, 1)
	return b.mem[offset]
}

// Write8 stores value into the byte register at offset.
func (b *Block) Write8(offset int, value uint8) {
	b.check(offset, 1)
	b.mem[offset] = value
}

// ReadBytes copies length bytes starting at offset into a new slice.
func (b *Block) ReadBytes(offset, length int) []byte {
	b.check(offset, length)
	out := make([]byte, length)
	copy(out, b.mem[offset:offset+length])
	return out
}
