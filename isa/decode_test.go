package isa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeKnown(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		raw    uint32
		expect Instruction
		text   string
	}{
		{0x00000093, Instruction{Op: OP_ADDI, Rd: 1}, "addi ra, zero, 0"},
		{0x00100113, Instruction{Op: OP_ADDI, Rd: 2, Imm: 1}, "addi sp, zero, 1"},
		{0xfff00093, Instruction{Op: OP_ADDI, Rd: 1, Imm: -1}, "addi ra, zero, -1"},
		{0x002080b3, Instruction{Op: OP_ADD, Rd: 1, Rs1: 1, Rs2: 2}, "add ra, ra, sp"},
		{0x402081b3, Instruction{Op: OP_SUB, Rd: 3, Rs1: 1, Rs2: 2}, "sub gp, ra, sp"},
		{0x00509093, Instruction{Op: OP_SLLI, Rd: 1, Rs1: 1, Imm: 5}, "slli ra, ra, 5"},
		{0x41f0d093, Instruction{Op: OP_SRAI, Rd: 1, Rs1: 1, Imm: 31}, "srai ra, ra, 31"},
		{0x00208463, Instruction{Op: OP_BEQ, Rs1: 1, Rs2: 2, Imm: 8}, "beq ra, sp, 8"},
		{0xfe62c8e3, Instruction{Op: OP_BLT, Rs1: 5, Rs2: 6, Imm: -16}, "blt t0, t1, -16"},
		{0x0040006f, Instruction{Op: OP_JAL, Imm: 4}, "jal zero, 4"},
		{0xff9ff0ef, Instruction{Op: OP_JAL, Rd: 1, Imm: -8}, "jal ra, -8"},
		{0x00008067, Instruction{Op: OP_JALR, Rs1: 1}, "jalr zero, 0(ra)"},
		{0x00112423, Instruction{Op: OP_SW, Rs1: 2, Rs2: 1, Imm: 8}, "sw ra, 8(sp)"},
		{0xfe110fa3, Instruction{Op: OP_SB, Rs1: 2, Rs2: 1, Imm: -1}, "sb ra, -1(sp)"},
		{0xffc12283, Instruction{Op: OP_LW, Rd: 5, Rs1: 2, Imm: -4}, "lw t0, -4(sp)"},
		{0x123452b7, Instruction{Op: OP_LUI, Rd: 5, Imm: 0x12345000}, "lui t0, 0x12345"},
		{0x00000517, Instruction{Op: OP_AUIPC, Rd: 10}, "auipc a0, 0x0"},
		{0x0ff0000f, Instruction{Op: OP_FENCE, Imm: 0xff}, "fence"},
		{0x00000073, Instruction{Op: OP_ECALL}, "ecall"},
		{0x00100073, Instruction{Op: OP_EBREAK}, "ebreak"},
	}

	for _, entry := range table {
		inst, err := Decode(entry.raw)
		entry.expect.Raw = entry.raw
		assert.NoError(err, entry.text)
		assert.Equal(entry.expect, inst, entry.text)
		assert.Equal(entry.text, inst.String())
	}
}

func TestDecodeIllegal(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name string
		raw  uint32
	}{
		{"zero word", 0x00000000},
		{"all ones", 0xffffffff},
		{"compressed", 0x00000001},
		{"jalr funct3", 0x00009067},
		{"branch funct3 2", 0x0020a463},
		{"branch funct3 3", 0x0020b463},
		{"load funct3 3", 0x0000b083},
		{"load funct3 6", 0x0000e083},
		{"store funct3 3", 0x0000b023},
		{"slli funct7", 0x40509093},
		{"srli funct7", 0x0250d093},
		{"add funct7", 0x202080b3},
		{"sub funct3", 0x402090b3},
		{"mul", 0x022080b3},
		{"fence.i disabled", 0x0000100f},
		{"misc-mem funct3 2", 0x0000200f},
		{"ecall rd", 0x000000f3},
		{"ecall rs1", 0x00008073},
		{"mret", 0x30200073},
		{"csrrw", 0x30001073},
		{"custom-0", 0x0000000b},
	}

	for _, entry := range table {
		inst, err := Decode(entry.raw)
		assert.ErrorIs(err, ErrIllegal, entry.name)
		assert.Equal(OP_INVALID, inst.Op, entry.name)
		assert.Equal(entry.raw, inst.Raw, entry.name)
		var illegal ErrIllegalEncoding
		if assert.True(errors.As(err, &illegal), entry.name) {
			assert.Equal(entry.raw, uint32(illegal), entry.name)
		}
	}
}

func TestDecodeConfig(t *testing.T) {
	assert := assert.New(t)

	_, err := Decode(0x0000100f)
	assert.ErrorIs(err, ErrIllegal)

	cfg := Config{Extensions: EXT_I | EXT_ZIFENCEI}
	inst, err := cfg.Decode(0x0000100f)
	assert.NoError(err)
	assert.Equal(OP_FENCE_I, inst.Op)
	assert.Equal("fence.i", inst.String())
}

func TestDecodeSweep(t *testing.T) {
	assert := assert.New(t)

	// Walk a large stride of the 32-bit space: every word decodes to a
	// valid op that re-encodes to itself, or is illegal.
	legal := 0
	for n := uint64(0); n < 1<<32; n += 0x10001 {
		raw := uint32(n)
		inst, err := Decode(raw)
		if err != nil {
			assert.ErrorIs(err, ErrIllegal)
			assert.Equal(OP_INVALID, inst.Op)
			continue
		}
		legal++
		assert.NotEqual(OP_INVALID, inst.Op)
		if inst.Op == OP_FENCE {
			continue
		}
		encoded, err := inst.Encode()
		assert.NoError(err)
		if !assert.Equal(raw, encoded, "%#08x %v", raw, inst) {
			return
		}
	}
	assert.Greater(legal, 0)
}

func FuzzDecode(f *testing.F) {
	for _, raw := range []uint32{0, 0x00000093, 0x402081b3, 0xfe62c8e3, 0xff9ff0ef, 0x00100073, 0xffffffff} {
		f.Add(raw)
	}

	f.Fuzz(func(t *testing.T, raw uint32) {
		assert := assert.New(t)

		inst, err := Decode(raw)
		if err != nil {
			assert.ErrorIs(err, ErrIllegal)
			assert.Equal(Instruction{Raw: raw}, inst)
			return
		}

		assert.Equal(raw, inst.Raw)
		assert.True(inst.Rd < REGISTER_COUNT)
		assert.True(inst.Rs1 < REGISTER_COUNT)
		assert.True(inst.Rs2 < REGISTER_COUNT)

		switch inst.Op.Format() {
		case FORMAT_B, FORMAT_J:
			assert.Zero(inst.Imm & 1)
		case FORMAT_U:
			assert.Zero(inst.Imm & 0xfff)
		}
		if inst.Op.IsShift() {
			assert.True(inst.Imm >= 0 && inst.Imm < 32)
		}

		if inst.Op != OP_FENCE {
			encoded, err := inst.Encode()
			assert.NoError(err)
			assert.Equal(raw, encoded)
		}
	})
}
