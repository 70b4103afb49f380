package cpu

import (
	"encoding/binary"
	"iter"
	"maps"

	"github.com/ezrec/rvsim/internal"
	"github.com/ezrec/rvsim/isa"
)

// LinkKind selects how a label address is folded into an instruction.
type LinkKind int

const (
	LINK_PCREL    = LinkKind(0) // Branch or jump offset from the instruction.
	LINK_PCREL_HI = LinkKind(1) // AUIPC upper part of the offset from the instruction.
	LINK_PCREL_LO = LinkKind(2) // Lower part of the offset from the preceding AUIPC.
	LINK_ABSOLUTE = LinkKind(3) // Data word holding the address.
)

// Link is a pending label reference inside an Opcode.
type Link struct {
	Index int      // Index into Opcode.Codes.
	Label string   // Label name.
	Kind  LinkKind // Relocation applied.
}

// Opcode is the assembly of a single source line.
type Opcode struct {
	LineNo int               // Source line number.
	Pc     uint32            // Address of the first code.
	Words  []string          // Source words, after expansion.
	Codes  []isa.Instruction // Assembled instructions; data words have OP_INVALID.
	Links  []Link            // Label references, resolved by the assembler.
}

// Program is an assembled program listing.
type Program struct {
	Base    uint32            // Lowest address of the image.
	Opcodes []Opcode          // Listing, in address order.
	Labels  map[string]uint32 // Label addresses.
}

// Debug locates the source of an address.
type Debug struct {
	*Opcode
	Index int
}

// Debug returns the listing entry containing pc, or a Debug with a nil
// Opcode if pc is outside the program.
func (prog *Program) Debug(pc uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if pc >= op.Pc && pc < op.Pc+uint32(4*len(op.Codes)) && (pc-op.Pc)%4 == 0 {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc-op.Pc) / 4,
			}
			break
		}
	}

	return
}

// Codes iterates over every assembled instruction and its address.
func (prog *Program) Codes() iter.Seq2[uint32, isa.Instruction] {
	return func(yield func(pc uint32, code isa.Instruction) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Pc+uint32(4*n), code) {
					return
				}
			}
		}
	}
}

// End returns the address just past the last instruction.
func (prog *Program) End() (end uint32) {
	end = prog.Base
	for pc := range prog.Codes() {
		end = max(end, pc+4)
	}
	return
}

// Binary returns the little-endian memory image from Base to End.
// Gaps left by .org are zero filled.
func (prog *Program) Binary() (data []byte) {
	data = make([]byte, prog.End()-prog.Base)
	for pc, code := range prog.Codes() {
		binary.LittleEndian.PutUint32(data[pc-prog.Base:], code.Raw)
	}

	return
}

// Symbol returns the address of a label.
func (prog *Program) Symbol(name string) (addr uint32, ok bool) {
	addr, ok = prog.Labels[name]
	return
}

// Symbols iterates over the labels in name order.
func (prog *Program) Symbols() iter.Seq2[string, uint32] {
	return internal.IterSeq2Sorted(maps.All(prog.Labels))
}
