package cpu

import (
	"log"

	"github.com/ezrec/rvsim/isa"
	"github.com/ezrec/rvsim/memory"
)

// Execute executes a decoded instruction located at pc.
//
// On success the destination register and program counter are updated.
// A *Halt leaves pc past the instruction. A *Fault leaves the registers,
// pc, and memory unchanged.
func (cpu *Cpu) Execute(inst isa.Instruction, pc uint32, mem memory.Memory) (err error) {
	if cpu.Verbose {
		log.Printf("%08x: %v", pc, inst)
	}

	if inst.Rd >= isa.REGISTER_COUNT || inst.Rs1 >= isa.REGISTER_COUNT || inst.Rs2 >= isa.REGISTER_COUNT {
		err = illegal(inst, pc)
		return
	}

	next := pc + 4
	rs1 := cpu.register[inst.Rs1]
	rs2 := cpu.register[inst.Rs2]
	imm := uint32(inst.Imm)

	var rd uint32

	switch inst.Op {
	case isa.OP_LUI:
		rd = imm
	case isa.OP_AUIPC:
		rd = pc + imm
	case isa.OP_JAL:
		rd = next
		next = pc + imm
	case isa.OP_JALR:
		rd = next
		next = (rs1 + imm) &^ 1
	case isa.OP_BEQ, isa.OP_BNE, isa.OP_BLT, isa.OP_BGE, isa.OP_BLTU, isa.OP_BGEU:
		if branchTaken(inst.Op, rs1, rs2) {
			next = pc + imm
		}
	case isa.OP_LB, isa.OP_LH, isa.OP_LW, isa.OP_LBU, isa.OP_LHU:
		rd, err = load(mem, inst.Op, rs1+imm)
		if err != nil {
			err = memoryFault(memory.ACCESS_LOAD, pc, rs1+imm, inst.Raw, err)
			return
		}
	case isa.OP_SB, isa.OP_SH, isa.OP_SW:
		err = store(mem, inst.Op, rs1+imm, rs2)
		if err != nil {
			err = memoryFault(memory.ACCESS_STORE, pc, rs1+imm, inst.Raw, err)
			return
		}
	case isa.OP_ADDI, isa.OP_SLTI, isa.OP_SLTIU, isa.OP_XORI, isa.OP_ORI, isa.OP_ANDI,
		isa.OP_SLLI, isa.OP_SRLI, isa.OP_SRAI:
		rd = alu(inst.Op, rs1, imm)
	case isa.OP_ADD, isa.OP_SUB, isa.OP_SLL, isa.OP_SLT, isa.OP_SLTU,
		isa.OP_XOR, isa.OP_SRL, isa.OP_SRA, isa.OP_OR, isa.OP_AND:
		rd = alu(inst.Op, rs1, rs2)
	case isa.OP_FENCE:
		// No-op on a single in-order hart.
	case isa.OP_FENCE_I:
		if !cpu.Config.Has(isa.EXT_ZIFENCEI) {
			err = illegal(inst, pc)
			return
		}
	case isa.OP_ECALL:
		err = &Halt{Cause: HALT_ECALL, Pc: pc}
	case isa.OP_EBREAK:
		err = &Halt{Cause: HALT_EBREAK, Pc: pc}
	default:
		err = illegal(inst, pc)
		return
	}

	if inst.Op.WritesRd() && inst.Rd != isa.REG_ZERO {
		cpu.register[inst.Rd] = rd
	}
	cpu.pc = next
	cpu.Steps++

	return
}

// illegal builds the fault for an instruction the Cpu cannot execute.
func illegal(inst isa.Instruction, pc uint32) *Fault {
	return &Fault{
		Kind:   FAULT_ILLEGAL_ENCODING,
		Access: memory.ACCESS_FETCH,
		Pc:     pc,
		Addr:   pc,
		Raw:    inst.Raw,
		Err:    isa.ErrIllegalEncoding(inst.Raw),
	}
}

// branchTaken evaluates a conditional branch comparison.
func branchTaken(op isa.Op, a, b uint32) bool {
	switch op {
	case isa.OP_BEQ:
		return a == b
	case isa.OP_BNE:
		return a != b
	case isa.OP_BLT:
		return int32(a) < int32(b)
	case isa.OP_BGE:
		return int32(a) >= int32(b)
	case isa.OP_BLTU:
		return a < b
	case isa.OP_BGEU:
		return a >= b
	}
	return false
}

// alu computes the register-register and register-immediate operations.
// Shift amounts use only the low 5 bits of value.
func alu(op isa.Op, input uint32, value uint32) (output uint32) {
	switch op {
	case isa.OP_ADD, isa.OP_ADDI:
		output = input + value
	case isa.OP_SUB:
		output = input - value
	case isa.OP_SLT, isa.OP_SLTI:
		if int32(input) < int32(value) {
			output = 1
		}
	case isa.OP_SLTU, isa.OP_SLTIU:
		if input < value {
			output = 1
		}
	case isa.OP_XOR, isa.OP_XORI:
		output = input ^ value
	case isa.OP_OR, isa.OP_ORI:
		output = input | value
	case isa.OP_AND, isa.OP_ANDI:
		output = input & value
	case isa.OP_SLL, isa.OP_SLLI:
		output = input << (value & 0x1f)
	case isa.OP_SRL, isa.OP_SRLI:
		output = input >> (value & 0x1f)
	case isa.OP_SRA, isa.OP_SRAI:
		output = uint32(int32(input) >> (value & 0x1f))
	}

	return
}

// checkAlign enforces natural alignment of multi-byte data accesses.
func checkAlign(access memory.Access, addr uint32, size int) (err error) {
	if addr%uint32(size) != 0 {
		err = &memory.ErrAccess{Op: access, Addr: addr, Size: size, Err: memory.ErrMisaligned}
	}
	return
}

// load performs a sign or zero extending load.
func load(mem memory.Memory, op isa.Op, addr uint32) (value uint32, err error) {
	switch op {
	case isa.OP_LB:
		var b uint8
		b, err = mem.Load8(addr)
		value = uint32(int32(int8(b)))
	case isa.OP_LBU:
		var b uint8
		b, err = mem.Load8(addr)
		value = uint32(b)
	case isa.OP_LH, isa.OP_LHU:
		if err = checkAlign(memory.ACCESS_LOAD, addr, 2); err != nil {
			return
		}
		var h uint16
		h, err = mem.Load16(addr)
		if op == isa.OP_LH {
			value = uint32(int32(int16(h)))
		} else {
			value = uint32(h)
		}
	case isa.OP_LW:
		if err = checkAlign(memory.ACCESS_LOAD, addr, 4); err != nil {
			return
		}
		value, err = mem.Load32(addr)
	}

	if err != nil {
		value = 0
	}

	return
}

// store writes the low bytes of value.
func store(mem memory.Memory, op isa.Op, addr uint32, value uint32) (err error) {
	switch op {
	case isa.OP_SB:
		err = mem.Store8(addr, uint8(value))
	case isa.OP_SH:
		if err = checkAlign(memory.ACCESS_STORE, addr, 2); err != nil {
			return
		}
		err = mem.Store16(addr, uint16(value))
	case isa.OP_SW:
		if err = checkAlign(memory.ACCESS_STORE, addr, 4); err != nil {
			return
		}
		err = mem.Store32(addr, value)
	}

	return
}
