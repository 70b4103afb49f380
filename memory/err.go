package memory

import (
	"errors"

	"github.com/ezrec/rvsim/translate"
)

var f = translate.From

var (
	ErrOutOfBounds = errors.New(f("out of bounds"))
	ErrMisaligned  = errors.New(f("misaligned"))
)

// ErrAccess describes a failed memory access.
type ErrAccess struct {
	Op   Access // Load or store.
	Addr uint32 // Logical address of the access.
	Size int    // Width in bytes.
	Err  error  // ErrOutOfBounds or ErrMisaligned.
}

func (err *ErrAccess) Error() string {
	return f("%v of %v bytes at 0x%08x: %v", err.Op.String(), err.Size, err.Addr, err.Err)
}

func (err *ErrAccess) Unwrap() error {
	return err.Err
}
