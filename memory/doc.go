// Package memory defines the load/store contract the RV32I core executes
// against, and the implementations used to back it.
//
// All multi-byte accesses are little-endian over a 32-bit address space.
// The core depends only on the Memory interface; Flat is the linear
// reference implementation, and Stats wraps any Memory to count traffic.
package memory
