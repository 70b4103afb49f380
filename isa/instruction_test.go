package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeKnown(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		inst   Instruction
		expect uint32
	}{
		{Instruction{Op: OP_ADDI, Rd: 3, Imm: 11}, 0x00b00193},
		{Instruction{Op: OP_ADD, Rd: 1, Rs1: 1, Rs2: 2}, 0x002080b3},
		{Instruction{Op: OP_SUB, Rd: 3, Rs1: 1, Rs2: 2}, 0x402081b3},
		{Instruction{Op: OP_SRAI, Rd: 1, Rs1: 1, Imm: 3}, 0x4030d093},
		{Instruction{Op: OP_BEQ, Rs1: 2, Rs2: 3, Imm: 0}, 0x00310063},
		{Instruction{Op: OP_BNE, Rs1: 1, Imm: 4094}, 0x7e009fe3},
		{Instruction{Op: OP_BNE, Rs1: 1, Imm: -4096}, 0x80009063},
		{Instruction{Op: OP_JAL, Rd: 1, Imm: 8}, 0x008000ef},
		{Instruction{Op: OP_JAL, Imm: 1<<20 - 2}, 0x7ffff06f},
		{Instruction{Op: OP_JAL, Imm: -(1 << 20)}, 0x8000006f},
		{Instruction{Op: OP_LUI, Rd: 5, Imm: 0x12345000}, 0x123452b7},
		{Instruction{Op: OP_FENCE, Imm: 0xff}, 0x0ff0000f},
		{Instruction{Op: OP_ECALL}, 0x00000073},
		{Instruction{Op: OP_EBREAK}, 0x00100073},
	}

	for _, entry := range table {
		raw, err := entry.inst.Encode()
		assert.NoError(err, entry.inst.String())
		assert.Equal(entry.expect, raw, entry.inst.String())
	}
}

func TestEncodeErrors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		inst Instruction
		err  error
	}{
		{Instruction{Op: OP_INVALID}, ErrEncodeOp},
		{Instruction{Op: Op(200)}, ErrEncodeOp},
		{Instruction{Op: OP_ADD, Rd: 32}, ErrEncodeRegister},
		{Instruction{Op: OP_ADDI, Imm: 2048}, ErrEncodeRange},
		{Instruction{Op: OP_ADDI, Imm: -2049}, ErrEncodeRange},
		{Instruction{Op: OP_SW, Imm: 4096}, ErrEncodeRange},
		{Instruction{Op: OP_SLLI, Imm: 32}, ErrEncodeRange},
		{Instruction{Op: OP_SRAI, Imm: -1}, ErrEncodeRange},
		{Instruction{Op: OP_BEQ, Imm: 3}, ErrEncodeAlign},
		{Instruction{Op: OP_BEQ, Imm: 4096}, ErrEncodeRange},
		{Instruction{Op: OP_JAL, Imm: 1 << 20}, ErrEncodeRange},
		{Instruction{Op: OP_JAL, Imm: 7}, ErrEncodeAlign},
		{Instruction{Op: OP_LUI, Imm: 0x123}, ErrEncodeAlign},
	}

	for _, entry := range table {
		raw, err := entry.inst.Encode()
		assert.ErrorIs(err, entry.err, entry.inst.String())
		assert.Equal(uint32(0), raw)

		var encodeErr *ErrEncode
		if assert.ErrorAs(err, &encodeErr) {
			assert.Equal(entry.inst.Op, encodeErr.Op)
		}
	}
}

func TestInstructionString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(".word 0xffffffff", Instruction{Raw: 0xffffffff}.String())
	assert.Equal(".word 0x00000000", Instruction{}.String())
	assert.Equal("lbu a0, 3(s0)", Instruction{Op: OP_LBU, Rd: 10, Rs1: 8, Imm: 3}.String())
	assert.Equal("sh t6, -2(sp)", Instruction{Op: OP_SH, Rs1: 2, Rs2: 31, Imm: -2}.String())
	assert.Equal("bgeu a0, a1, -12", Instruction{Op: OP_BGEU, Rs1: 10, Rs2: 11, Imm: -12}.String())
	assert.Equal("sltu t0, t1, t2", Instruction{Op: OP_SLTU, Rd: 5, Rs1: 6, Rs2: 7}.String())
	assert.Equal("lui a0, 0xfffff", Instruction{Op: OP_LUI, Rd: 10, Imm: -0x1000}.String())
}

func TestRegisters(t *testing.T) {
	assert := assert.New(t)

	for n := uint8(0); n < REGISTER_COUNT; n++ {
		reg, ok := ParseRegister(RegisterName(n))
		assert.True(ok)
		assert.Equal(n, reg)
	}

	table := []struct {
		name   string
		expect uint8
		ok     bool
	}{
		{"x0", 0, true},
		{"X31", 31, true},
		{"fp", 8, true},
		{"s0", 8, true},
		{"A7", 17, true},
		{"x32", 0, false},
		{"x", 0, false},
		{"x-1", 0, false},
		{"r1", 0, false},
		{"", 0, false},
	}

	for _, entry := range table {
		reg, ok := ParseRegister(entry.name)
		assert.Equal(entry.ok, ok, entry.name)
		assert.Equal(entry.expect, reg, entry.name)
	}

	assert.Equal("x40?", RegisterName(40))
}

func TestOps(t *testing.T) {
	assert := assert.New(t)

	ops := Ops()
	assert.Len(ops, 41)
	for _, op := range ops {
		parsed, ok := ParseOp(op.String())
		assert.True(ok)
		assert.Equal(op, parsed)
		assert.NotEqual(FORMAT_NONE, op.Format(), op.String())
	}

	op, ok := ParseOp("mul")
	assert.False(ok)
	assert.Equal(OP_INVALID, op)

	assert.True(OP_ADD.WritesRd())
	assert.True(OP_JALR.WritesRd())
	assert.True(OP_LW.WritesRd())
	assert.False(OP_SW.WritesRd())
	assert.False(OP_BEQ.WritesRd())
	assert.False(OP_ECALL.WritesRd())
	assert.False(OP_FENCE.WritesRd())
}
