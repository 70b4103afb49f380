package isa

var loadOps = [8]Op{
	0b000: OP_LB,
	0b001: OP_LH,
	0b010: OP_LW,
	0b100: OP_LBU,
	0b101: OP_LHU,
}

var storeOps = [8]Op{
	0b000: OP_SB,
	0b001: OP_SH,
	0b010: OP_SW,
}

var branchOps = [8]Op{
	0b000: OP_BEQ,
	0b001: OP_BNE,
	0b100: OP_BLT,
	0b101: OP_BGE,
	0b110: OP_BLTU,
	0b111: OP_BGEU,
}

var immOps = [8]Op{
	0b000: OP_ADDI,
	0b010: OP_SLTI,
	0b011: OP_SLTIU,
	0b100: OP_XORI,
	0b110: OP_ORI,
	0b111: OP_ANDI,
}

// regOps is indexed by funct3, for funct7 0b000_0000 and 0b010_0000.
var regOps = [2][8]Op{
	{OP_ADD, OP_SLL, OP_SLT, OP_SLTU, OP_XOR, OP_SRL, OP_OR, OP_AND},
	{OP_SUB, OP_INVALID, OP_INVALID, OP_INVALID, OP_INVALID, OP_SRA, OP_INVALID, OP_INVALID},
}

// Decode decodes raw with the default RV32I configuration.
func Decode(raw uint32) (inst Instruction, err error) {
	return DefaultConfig().Decode(raw)
}

// Decode decodes raw into an Instruction.
//
// Every word either decodes to a valid operation, or returns an
// ErrIllegalEncoding (which matches ErrIllegal) and an OP_INVALID
// instruction carrying only Raw.
func (cfg Config) Decode(raw uint32) (inst Instruction, err error) {
	inst.Raw = raw

	defer func() {
		if inst.Op == OP_INVALID {
			inst = Instruction{Raw: raw}
			err = ErrIllegalEncoding(raw)
		}
	}()

	funct3 := Funct3(raw)
	funct7 := Funct7(raw)

	switch Opcode(raw) {
	case OPCODE_LUI:
		inst.Op = OP_LUI
		inst.Rd = Rd(raw)
		inst.Imm = ImmU(raw)
	case OPCODE_AUIPC:
		inst.Op = OP_AUIPC
		inst.Rd = Rd(raw)
		inst.Imm = ImmU(raw)
	case OPCODE_JAL:
		inst.Op = OP_JAL
		inst.Rd = Rd(raw)
		inst.Imm = ImmJ(raw)
	case OPCODE_JALR:
		if funct3 != 0 {
			return
		}
		inst.Op = OP_JALR
		inst.Rd = Rd(raw)
		inst.Rs1 = Rs1(raw)
		inst.Imm = ImmI(raw)
	case OPCODE_BRANCH:
		inst.Op = branchOps[funct3]
		inst.Rs1 = Rs1(raw)
		inst.Rs2 = Rs2(raw)
		inst.Imm = ImmB(raw)
	case OPCODE_LOAD:
		inst.Op = loadOps[funct3]
		inst.Rd = Rd(raw)
		inst.Rs1 = Rs1(raw)
		inst.Imm = ImmI(raw)
	case OPCODE_STORE:
		inst.Op = storeOps[funct3]
		inst.Rs1 = Rs1(raw)
		inst.Rs2 = Rs2(raw)
		inst.Imm = ImmS(raw)
	case OPCODE_OP_IMM:
		inst.Rd = Rd(raw)
		inst.Rs1 = Rs1(raw)
		switch {
		case funct3 == 0b001 && funct7 == 0b000_0000:
			inst.Op = OP_SLLI
			inst.Imm = int32(Rs2(raw))
		case funct3 == 0b101 && funct7 == 0b000_0000:
			inst.Op = OP_SRLI
			inst.Imm = int32(Rs2(raw))
		case funct3 == 0b101 && funct7 == 0b010_0000:
			inst.Op = OP_SRAI
			inst.Imm = int32(Rs2(raw))
		default:
			inst.Op = immOps[funct3]
			inst.Imm = ImmI(raw)
		}
	case OPCODE_OP:
		switch funct7 {
		case 0b000_0000:
			inst.Op = regOps[0][funct3]
		case 0b010_0000:
			inst.Op = regOps[1][funct3]
		default:
			return
		}
		inst.Rd = Rd(raw)
		inst.Rs1 = Rs1(raw)
		inst.Rs2 = Rs2(raw)
	case OPCODE_MISC_MEM:
		switch funct3 {
		case 0b000:
			inst.Op = OP_FENCE
			inst.Rd = Rd(raw)
			inst.Rs1 = Rs1(raw)
			inst.Imm = ImmI(raw)
		case 0b001:
			if cfg.Has(EXT_ZIFENCEI) {
				inst.Op = OP_FENCE_I
				inst.Rd = Rd(raw)
				inst.Rs1 = Rs1(raw)
				inst.Imm = ImmI(raw)
			}
		}
	case OPCODE_SYSTEM:
		switch raw {
		case 0x0000_0073:
			inst.Op = OP_ECALL
		case 0x0010_0073:
			inst.Op = OP_EBREAK
		}
	}

	return
}
