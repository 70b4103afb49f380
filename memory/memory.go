package memory

// Access is the kind of memory access being performed.
type Access int

//go:generate go tool stringer -linecomment -type=Access
const (
	ACCESS_FETCH = Access(0) // fetch
	ACCESS_LOAD  = Access(1) // load
	ACCESS_STORE = Access(2) // store
)

// Memory is the load/store contract for a 32-bit byte addressed space.
//
// Implementations report faults as errors; they never panic on a bad
// address. Implementations must not keep per-caller state, so that one
// Memory can be shared by several cores.
type Memory interface {
	// Load8 reads a byte.
	Load8(addr uint32) (value uint8, err error)
	// Load16 reads a little-endian half-word.
	Load16(addr uint32) (value uint16, err error)
	// Load32 reads a little-endian word.
	Load32(addr uint32) (value uint32, err error)
	// Store8 writes a byte.
	Store8(addr uint32, value uint8) (err error)
	// Store16 writes a little-endian half-word.
	Store16(addr uint32, value uint16) (err error)
	// Store32 writes a little-endian word.
	Store32(addr uint32, value uint32) (err error)
}
