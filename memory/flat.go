// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package memory

import (
	"encoding/binary"
)

// Flat is a single contiguous window of the address space.
//
// Logical address base maps to Data[0]. Accesses outside
// [base, base+len(Data)) fail with ErrOutOfBounds; nothing wraps.
type Flat struct {
	Data []byte // Backing store.

	base uint32
}

var _ Memory = (*Flat)(nil)

// NewFlat creates a zeroed window of size bytes starting at base.
func NewFlat(size int, base uint32) (mem *Flat) {
	mem = &Flat{
		Data: make([]byte, size),
		base: base,
	}

	return
}

// Base returns the logical address of the first byte.
func (mem *Flat) Base() uint32 {
	return mem.base
}

// Size returns the window size in bytes.
func (mem *Flat) Size() int {
	return len(mem.Data)
}

// Contains returns true if [addr, addr+size) is inside the window.
func (mem *Flat) Contains(addr uint32, size int) bool {
	if addr < mem.base || size < 0 {
		return false
	}
	return uint64(addr-mem.base)+uint64(size) <= uint64(len(mem.Data))
}

// index translates a logical address into an offset into Data.
func (mem *Flat) index(op Access, addr uint32, size int) (index int, err error) {
	if size > 1 && addr%uint32(size) != 0 {
		err = &ErrAccess{Op: op, Addr: addr, Size: size, Err: ErrMisaligned}
		return
	}

	if !mem.Contains(addr, size) {
		err = &ErrAccess{Op: op, Addr: addr, Size: size, Err: ErrOutOfBounds}
		return
	}

	index = int(addr - mem.base)
	return
}

func (mem *Flat) Load8(addr uint32) (value uint8, err error) {
	n, err := mem.index(ACCESS_LOAD, addr, 1)
	if err != nil {
		return
	}
	value = mem.Data[n]
	return
}

func (mem *Flat) Load16(addr uint32) (value uint16, err error) {
	n, err := mem.index(ACCESS_LOAD, addr, 2)
	if err != nil {
		return
	}
	value = binary.LittleEndian.Uint16(mem.Data[n:])
	return
}

func (mem *Flat) Load32(addr uint32) (value uint32, err error) {
	n, err := mem.index(ACCESS_LOAD, addr, 4)
	if err != nil {
		return
	}
	value = binary.LittleEndian.Uint32(mem.Data[n:])
	return
}

func (mem *Flat) Store8(addr uint32, value uint8) (err error) {
	n, err := mem.index(ACCESS_STORE, addr, 1)
	if err != nil {
		return
	}
	mem.Data[n] = value
	return
}

func (mem *Flat) Store16(addr uint32, value uint16) (err error) {
	n, err := mem.index(ACCESS_STORE, addr, 2)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint16(mem.Data[n:], value)
	return
}

func (mem *Flat) Store32(addr uint32, value uint32) (err error) {
	n, err := mem.index(ACCESS_STORE, addr, 4)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint32(mem.Data[n:], value)
	return
}

// WriteBytes copies data into the window starting at addr.
// Nothing is written if any part of the range is outside the window.
func (mem *Flat) WriteBytes(addr uint32, data []byte) (err error) {
	if !mem.Contains(addr, len(data)) {
		err = &ErrAccess{Op: ACCESS_STORE, Addr: addr, Size: len(data), Err: ErrOutOfBounds}
		return
	}

	copy(mem.Data[addr-mem.base:], data)
	return
}

// ReadBytes returns a copy of length bytes starting at addr.
func (mem *Flat) ReadBytes(addr uint32, length int) (data []byte, err error) {
	if !mem.Contains(addr, length) {
		err = &ErrAccess{Op: ACCESS_LOAD, Addr: addr, Size: length, Err: ErrOutOfBounds}
		return
	}

	start := int(addr - mem.base)
	data = make([]byte, length)
	copy(data, mem.Data[start:start+length])
	return
}

// Reset zeroes the whole window.
func (mem *Flat) Reset() {
	clear(mem.Data)
}
