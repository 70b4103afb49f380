package isa

import (
	"errors"

	"github.com/ezrec/rvsim/translate"
)

var f = translate.From

var (
	// Decode errors
	ErrIllegal = errors.New(f("illegal instruction"))

	// Encode errors
	ErrEncodeOp       = errors.New(f("operation cannot be encoded"))
	ErrEncodeRegister = errors.New(f("register out of range"))
	ErrEncodeRange    = errors.New(f("immediate out of range"))
	ErrEncodeAlign    = errors.New(f("immediate misaligned"))

	// Configuration errors
	ErrIsaInvalid           = errors.New(f("isa string invalid"))
	ErrExtensionUnsupported = errors.New(f("extension unsupported"))
	ErrExtensionBase        = errors.New(f("base integer set missing"))
)

// ErrIllegalEncoding reports a word outside the supported instruction table.
type ErrIllegalEncoding uint32

func (err ErrIllegalEncoding) Error() string {
	return f("illegal encoding 0x%08x", uint32(err))
}

func (err ErrIllegalEncoding) Unwrap() error {
	return ErrIllegal
}

// ErrExtension names an unsupported extension in an ISA string.
type ErrExtension string

func (err ErrExtension) Error() string {
	return f("extension '%v' unsupported", string(err))
}

func (err ErrExtension) Unwrap() error {
	return ErrExtensionUnsupported
}

// ErrEncode reports why an instruction could not be encoded.
type ErrEncode struct {
	Op  Op
	Err error
}

func (err *ErrEncode) Error() string {
	return f("%v: %v", err.Op.String(), err.Err)
}

func (err *ErrEncode) Unwrap() error {
	return err.Err
}
