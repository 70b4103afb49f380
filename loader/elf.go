package loader

import (
	"debug/elf"
	"errors"
	"io"

	"github.com/ezrec/rvsim/memory"
)

// LoadELF loads the PT_LOAD segments of a 32-bit little-endian RISC-V
// executable. Each segment's tail past its file size is zero-filled.
func LoadELF(mem memory.Memory, r io.ReaderAt) (img *Image, err error) {
	file, err := elf.NewFile(r)
	if err != nil {
		err = errors.Join(ErrElfFormat, err)
		return
	}
	defer file.Close()

	switch {
	case file.Class != elf.ELFCLASS32:
		err = ErrElfClass
	case file.Data != elf.ELFDATA2LSB:
		err = ErrElfData
	case file.Machine != elf.EM_RISCV:
		err = ErrElfMachine
	case file.Type != elf.ET_EXEC && file.Type != elf.ET_DYN:
		err = ErrElfType
	}
	if err != nil {
		return
	}

	img = &Image{
		Entry:   uint32(file.Entry),
		Symbols: map[string]uint32{},
	}

	index := 0
	for _, prog := range file.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}

		var seg Segment
		seg, err = loadSegment(mem, prog)
		if err != nil {
			err = &ErrSegment{Index: index, Addr: uint32(prog.Vaddr), Size: prog.Memsz, Err: err}
			img = nil
			return
		}
		img.Segments = append(img.Segments, seg)
		index++
	}

	symbols, serr := file.Symbols()
	if serr != nil && !errors.Is(serr, elf.ErrNoSymbols) {
		err = errors.Join(ErrElfFormat, serr)
		img = nil
		return
	}
	for _, sym := range symbols {
		switch elf.ST_TYPE(sym.Info) {
		case elf.STT_SECTION, elf.STT_FILE:
			continue
		}
		if sym.Name == "" || sym.Section == elf.SHN_UNDEF {
			continue
		}
		img.Symbols[sym.Name] = uint32(sym.Value)
	}

	return
}

// containment is implemented by memories that know their own extent.
type containment interface {
	Contains(addr uint32, size int) bool
}

var _ containment = (*memory.Flat)(nil)

// bssChunk bounds the zero buffer used to clear a segment's tail.
const bssChunk = 4096

// reserve checks that [addr, addr+size) is writable before any buffer
// sized from untrusted headers is allocated.
func reserve(mem memory.Memory, addr uint32, size uint64) (err error) {
	if size == 0 {
		return
	}
	if c, ok := mem.(containment); ok {
		if !c.Contains(addr, int(size)) {
			err = &memory.ErrAccess{Op: memory.ACCESS_STORE, Addr: addr, Size: int(size), Err: memory.ErrOutOfBounds}
		}
		return
	}
	for _, at := range []uint32{addr, addr + uint32(size-1)} {
		_, err = mem.Load8(at)
		if err != nil {
			return
		}
	}
	return
}

func loadSegment(mem memory.Memory, prog *elf.Prog) (seg Segment, err error) {
	if prog.Filesz > prog.Memsz || prog.Vaddr+prog.Memsz > 1<<32 {
		err = ErrRange
		return
	}

	seg = Segment{
		Addr:     uint32(prog.Vaddr),
		FileSize: uint32(prog.Filesz),
		MemSize:  uint32(prog.Memsz),
		Exec:     prog.Flags&elf.PF_X != 0,
	}

	err = reserve(mem, seg.Addr, prog.Memsz)
	if err != nil {
		return
	}

	data := make([]byte, prog.Filesz)
	_, err = io.ReadFull(prog.Open(), data)
	if err != nil {
		return
	}
	err = write(mem, seg.Addr, data)
	if err != nil {
		return
	}

	zero := make([]byte, min(bssChunk, prog.Memsz-prog.Filesz))
	for off := prog.Filesz; off < prog.Memsz; off += uint64(len(zero)) {
		n := min(uint64(len(zero)), prog.Memsz-off)
		err = write(mem, seg.Addr+uint32(off), zero[:n])
		if err != nil {
			return
		}
	}

	return
}
