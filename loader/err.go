package loader

import (
	"errors"

	"github.com/ezrec/rvsim/translate"
)

var f = translate.From

var (
	ErrElfFormat  = errors.New(f("not an ELF file"))
	ErrElfClass   = errors.New(f("ELF file is not 32-bit"))
	ErrElfData    = errors.New(f("ELF file is not little-endian"))
	ErrElfMachine = errors.New(f("ELF file is not RISC-V"))
	ErrElfType    = errors.New(f("ELF file is not an executable"))
	ErrRange      = errors.New(f("image does not fit in memory"))
)

// ErrSegment reports a PT_LOAD segment that could not be placed.
type ErrSegment struct {
	Index int
	Addr  uint32
	Size  uint64
	Err   error
}

func (err *ErrSegment) Error() string {
	return f("segment %v at 0x%08x (%v bytes): %v", err.Index, err.Addr, err.Size, err.Err)
}

func (err *ErrSegment) Unwrap() error {
	return err.Err
}
