package loader

import (
	"encoding/binary"
	"io"
	"maps"
	"slices"

	"github.com/ezrec/rvsim/memory"
)

// Segment is one contiguous region placed by a load.
type Segment struct {
	Addr     uint32 // First byte written.
	FileSize uint32 // Bytes copied from the image.
	MemSize  uint32 // Bytes occupied in memory, including zero fill.
	Exec     bool   // Segment holds code.
}

// Image describes a loaded program.
type Image struct {
	Entry    uint32
	Segments []Segment
	Symbols  map[string]uint32
}

// Symbol returns the address of a named symbol.
func (img *Image) Symbol(name string) (addr uint32, ok bool) {
	addr, ok = img.Symbols[name]
	return
}

// SymbolNames returns the image's symbol names, sorted.
func (img *Image) SymbolNames() []string {
	return slices.Sorted(maps.Keys(img.Symbols))
}

// Range returns the lowest address used and one past the highest.
func (img *Image) Range() (low uint32, high uint64) {
	if len(img.Segments) == 0 {
		return
	}

	low = img.Segments[0].Addr
	for _, seg := range img.Segments {
		low = min(low, seg.Addr)
		high = max(high, uint64(seg.Addr)+uint64(seg.MemSize))
	}
	return
}

// byteWriter is implemented by memories that accept bulk copies.
type byteWriter interface {
	WriteBytes(addr uint32, data []byte) error
}

var _ byteWriter = (*memory.Flat)(nil)

// write places data at addr, rejecting ranges that wrap the address space.
func write(mem memory.Memory, addr uint32, data []byte) (err error) {
	if uint64(addr)+uint64(len(data)) > 1<<32 {
		err = ErrRange
		return
	}

	if bw, ok := mem.(byteWriter); ok {
		err = bw.WriteBytes(addr, data)
		return
	}

	for n, b := range data {
		err = mem.Store8(addr+uint32(n), b)
		if err != nil {
			return
		}
	}
	return
}

// flat places data at addr as a single executable segment.
func flat(mem memory.Memory, addr uint32, data []byte) (img *Image, err error) {
	err = write(mem, addr, data)
	if err != nil {
		err = &ErrSegment{Index: 0, Addr: addr, Size: uint64(len(data)), Err: err}
		return
	}

	img = &Image{
		Entry:   addr,
		Symbols: map[string]uint32{},
	}
	if len(data) > 0 {
		size := uint32(len(data))
		img.Segments = []Segment{{Addr: addr, FileSize: size, MemSize: size, Exec: true}}
	}
	return
}

// LoadBinary copies a flat image from r to addr. The entry point is addr.
func LoadBinary(mem memory.Memory, addr uint32, r io.Reader) (img *Image, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	img, err = flat(mem, addr, data)
	return
}

// LoadWords stores words little-endian starting at addr.
func LoadWords(mem memory.Memory, addr uint32, words []uint32) (img *Image, err error) {
	data := make([]byte, 0, 4*len(words))
	for _, word := range words {
		data = binary.LittleEndian.AppendUint32(data, word)
	}

	img, err = flat(mem, addr, data)
	return
}
