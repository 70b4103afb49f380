// Package isa implements the RV32I instruction encoding.
//
// Decode turns a raw 32-bit instruction word into an Instruction: a closed
// set of operations (Op), each carrying its register indices and its
// immediate already assembled and sign-extended. Decoding is pure and
// total; any word outside the supported table yields an error wrapping
// ErrIllegal. Encode is the inverse, used by the assembler.
//
// Config gates optional instructions (currently only Zifencei).
package isa
