// Package loader places program images into a memory.Memory.
//
// Flat binaries and word lists are copied to a fixed address. ELF32
// little-endian RISC-V executables are loaded segment by segment, with
// the bss tail of each PT_LOAD segment zero-filled, and their symbol
// table is kept for lookup.
package loader
