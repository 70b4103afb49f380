package isa

import (
	"fmt"
)

// Instruction is one decoded instruction.
//
// Imm holds the final immediate: sign-extended for I/S/B/J formats, the
// upper 20 bits for U format, the shift amount for SLLI/SRLI/SRAI, and the
// raw fm/pred/succ field for FENCE. Fields an operation does not use are
// zero.
type Instruction struct {
	Op  Op
	Rd  uint8
	Rs1 uint8
	Rs2 uint8
	Imm int32
	Raw uint32 // Decoded or assembled word, if known.
}

// String returns the assembly language representation of the instruction.
func (inst Instruction) String() string {
	op := inst.Op
	rd := RegisterName(inst.Rd)
	rs1 := RegisterName(inst.Rs1)
	rs2 := RegisterName(inst.Rs2)

	switch {
	case op == OP_INVALID:
		return fmt.Sprintf(".word 0x%08x", inst.Raw)
	case op == OP_FENCE, op == OP_FENCE_I, op == OP_ECALL, op == OP_EBREAK:
		return op.String()
	case op == OP_LUI, op == OP_AUIPC:
		return fmt.Sprintf("%v %v, %#x", op, rd, uint32(inst.Imm)>>12)
	case op == OP_JAL:
		return fmt.Sprintf("%v %v, %d", op, rd, inst.Imm)
	case op == OP_JALR, op.IsLoad():
		return fmt.Sprintf("%v %v, %d(%v)", op, rd, inst.Imm, rs1)
	case op.IsStore():
		return fmt.Sprintf("%v %v, %d(%v)", op, rs2, inst.Imm, rs1)
	case op.IsBranch():
		return fmt.Sprintf("%v %v, %v, %d", op, rs1, rs2, inst.Imm)
	case op.Format() == FORMAT_R:
		return fmt.Sprintf("%v %v, %v, %v", op, rd, rs1, rs2)
	default:
		return fmt.Sprintf("%v %v, %v, %d", op, rd, rs1, inst.Imm)
	}
}

// checkRange verifies imm fits in a signed field of bits width, with
// the given low-bit alignment.
func checkRange(imm int32, bits uint, align int32) (err error) {
	limit := int32(1) << (bits - 1)
	if imm < -limit || imm >= limit {
		err = ErrEncodeRange
		return
	}
	if imm%align != 0 {
		err = ErrEncodeAlign
		return
	}
	return
}

// Encode assembles the instruction back into its 32-bit word.
func (inst Instruction) Encode() (raw uint32, err error) {
	defer func() {
		if err != nil {
			err = &ErrEncode{Op: inst.Op, Err: err}
		}
	}()

	enc, ok := encodings[inst.Op]
	if !ok {
		err = ErrEncodeOp
		return
	}

	if inst.Rd >= REGISTER_COUNT || inst.Rs1 >= REGISTER_COUNT || inst.Rs2 >= REGISTER_COUNT {
		err = ErrEncodeRegister
		return
	}

	imm := inst.Imm

	switch inst.Op {
	case OP_ECALL:
		raw = EncodeI(enc.opcode, enc.funct3, 0, 0, 0)
		return
	case OP_EBREAK:
		raw = EncodeI(enc.opcode, enc.funct3, 0, 0, 1)
		return
	case OP_SLLI, OP_SRLI, OP_SRAI:
		if imm < 0 || imm > 31 {
			err = ErrEncodeRange
			return
		}
		imm |= int32(enc.funct7 << 5)
	}

	switch enc.format {
	case FORMAT_R:
		raw = EncodeR(enc.opcode, enc.funct3, enc.funct7, inst.Rd, inst.Rs1, inst.Rs2)
	case FORMAT_I:
		err = checkRange(imm, 12, 1)
		raw = EncodeI(enc.opcode, enc.funct3, inst.Rd, inst.Rs1, imm)
	case FORMAT_S:
		err = checkRange(imm, 12, 1)
		raw = EncodeS(enc.opcode, enc.funct3, inst.Rs1, inst.Rs2, imm)
	case FORMAT_B:
		err = checkRange(imm, 13, 2)
		raw = EncodeB(enc.opcode, enc.funct3, inst.Rs1, inst.Rs2, imm)
	case FORMAT_U:
		if imm&0xfff != 0 {
			err = ErrEncodeAlign
		}
		raw = EncodeU(enc.opcode, inst.Rd, imm)
	case FORMAT_J:
		err = checkRange(imm, 21, 2)
		raw = EncodeJ(enc.opcode, inst.Rd, imm)
	}

	if err != nil {
		raw = 0
	}

	return
}

// EncodeR builds an R-type word.
func EncodeR(opcode, funct3, funct7 uint32, rd, rs1, rs2 uint8) uint32 {
	return (funct7&0x7f)<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		(funct3&0x7)<<12 | uint32(rd&0x1f)<<7 | (opcode & 0x7f)
}

// EncodeI builds an I-type word from imm[11:0].
func EncodeI(opcode, funct3 uint32, rd, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | uint32(rs1&0x1f)<<15 |
		(funct3&0x7)<<12 | uint32(rd&0x1f)<<7 | (opcode & 0x7f)
}

// EncodeS builds an S-type word from imm[11:0].
func EncodeS(opcode, funct3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7f)<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		(funct3&0x7)<<12 | (u&0x1f)<<7 | (opcode & 0x7f)
}

// EncodeB builds a B-type word from imm[12:1].
func EncodeB(opcode, funct3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>12)&0x1)<<31 | ((u>>5)&0x3f)<<25 | uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 | (funct3&0x7)<<12 | ((u>>1)&0xf)<<8 |
		((u>>11)&0x1)<<7 | (opcode & 0x7f)
}

// EncodeU builds a U-type word from imm[31:12].
func EncodeU(opcode uint32, rd uint8, imm int32) uint32 {
	return (uint32(imm) & 0xfffff000) | uint32(rd&0x1f)<<7 | (opcode & 0x7f)
}

// EncodeJ builds a J-type word from imm[20:1].
func EncodeJ(opcode uint32, rd uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>20)&0x1)<<31 | ((u>>1)&0x3ff)<<21 | ((u>>11)&0x1)<<20 |
		((u>>12)&0xff)<<12 | uint32(rd&0x1f)<<7 | (opcode & 0x7f)
}
