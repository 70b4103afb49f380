// Package cpu implements the RV32I execution engine and assembler.
//
// A Cpu owns the architectural state of one hart: 32 integer registers
// (x0 hardwired to zero) and a program counter. Each Step fetches the word
// at pc from a caller supplied memory.Memory, decodes it with the isa
// package, and executes it. Faults and halt requests are returned as
// *Fault and *Halt errors, and leave the Cpu stopped until Resume.
//
// The assembler accepts RV32I mnemonics with ABI register names, labels,
// equates, macros, and compile-time $(...) expression evaluation.
package cpu
