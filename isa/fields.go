package isa

// Major opcodes, bits [6:0] of the instruction word.
const (
	OPCODE_LOAD     = uint32(0b000_0011)
	OPCODE_MISC_MEM = uint32(0b000_1111)
	OPCODE_OP_IMM   = uint32(0b001_0011)
	OPCODE_AUIPC    = uint32(0b001_0111)
	OPCODE_STORE    = uint32(0b010_0011)
	OPCODE_OP       = uint32(0b011_0011)
	OPCODE_LUI      = uint32(0b011_0111)
	OPCODE_BRANCH   = uint32(0b110_0011)
	OPCODE_JALR     = uint32(0b110_0111)
	OPCODE_JAL      = uint32(0b110_1111)
	OPCODE_SYSTEM   = uint32(0b111_0011)
)

// Opcode extracts bits [6:0].
func Opcode(raw uint32) uint32 {
	return raw & 0x7f
}

// Rd extracts bits [11:7].
func Rd(raw uint32) uint8 {
	return uint8((raw >> 7) & 0x1f)
}

// Funct3 extracts bits [14:12].
func Funct3(raw uint32) uint32 {
	return (raw >> 12) & 0x7
}

// Rs1 extracts bits [19:15].
func Rs1(raw uint32) uint8 {
	return uint8((raw >> 15) & 0x1f)
}

// Rs2 extracts bits [24:20].
func Rs2(raw uint32) uint8 {
	return uint8((raw >> 20) & 0x1f)
}

// Funct7 extracts bits [31:25].
func Funct7(raw uint32) uint32 {
	return (raw >> 25) & 0x7f
}

// signExtend treats the low bits of value as a two's complement number.
func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

// ImmI is imm[11:0] = raw[31:20], sign-extended.
func ImmI(raw uint32) int32 {
	return int32(raw) >> 20
}

// ImmS is imm[11:5] = raw[31:25], imm[4:0] = raw[11:7], sign-extended.
func ImmS(raw uint32) int32 {
	imm := ((raw >> 25) << 5) | ((raw >> 7) & 0x1f)
	return signExtend(imm, 12)
}

// ImmB is imm[12|10:5|4:1|11] from raw[31|30:25|11:8|7], sign-extended.
// Bit 0 is always zero.
func ImmB(raw uint32) int32 {
	imm := ((raw >> 31) & 0x1) << 12
	imm |= ((raw >> 7) & 0x1) << 11
	imm |= ((raw >> 25) & 0x3f) << 5
	imm |= ((raw >> 8) & 0xf) << 1
	return signExtend(imm, 13)
}

// ImmU is raw[31:12] in the upper 20 bits, low 12 bits zero.
func ImmU(raw uint32) int32 {
	return int32(raw & 0xfffff000)
}

// ImmJ is imm[20|10:1|11|19:12] from raw[31|30:21|20|19:12], sign-extended.
// Bit 0 is always zero.
func ImmJ(raw uint32) int32 {
	imm := ((raw >> 31) & 0x1) << 20
	imm |= raw & 0x000ff000
	imm |= ((raw >> 20) & 0x1) << 11
	imm |= ((raw >> 21) & 0x3ff) << 1
	return signExtend(imm, 21)
}
