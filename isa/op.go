package isa

// Op is a decoded RV32I operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_INVALID = Op(0)  // invalid
	OP_LUI     = Op(1)  // lui
	OP_AUIPC   = Op(2)  // auipc
	OP_JAL     = Op(3)  // jal
	OP_JALR    = Op(4)  // jalr
	OP_BEQ     = Op(5)  // beq
	OP_BNE     = Op(6)  // bne
	OP_BLT     = Op(7)  // blt
	OP_BGE     = Op(8)  // bge
	OP_BLTU    = Op(9)  // bltu
	OP_BGEU    = Op(10) // bgeu
	OP_LB      = Op(11) // lb
	OP_LH      = Op(12) // lh
	OP_LW      = Op(13) // lw
	OP_LBU     = Op(14) // lbu
	OP_LHU     = Op(15) // lhu
	OP_SB      = Op(16) // sb
	OP_SH      = Op(17) // sh
	OP_SW      = Op(18) // sw
	OP_ADDI    = Op(19) // addi
	OP_SLTI    = Op(20) // slti
	OP_SLTIU   = Op(21) // sltiu
	OP_XORI    = Op(22) // xori
	OP_ORI     = Op(23) // ori
	OP_ANDI    = Op(24) // andi
	OP_SLLI    = Op(25) // slli
	OP_SRLI    = Op(26) // srli
	OP_SRAI    = Op(27) // srai
	OP_ADD     = Op(28) // add
	OP_SUB     = Op(29) // sub
	OP_SLL     = Op(30) // sll
	OP_SLT     = Op(31) // slt
	OP_SLTU    = Op(32) // sltu
	OP_XOR     = Op(33) // xor
	OP_SRL     = Op(34) // srl
	OP_SRA     = Op(35) // sra
	OP_OR      = Op(36) // or
	OP_AND     = Op(37) // and
	OP_FENCE   = Op(38) // fence
	OP_FENCE_I = Op(39) // fence.i
	OP_ECALL   = Op(40) // ecall
	OP_EBREAK  = Op(41) // ebreak
)

// Format is the encoding layout of an instruction word.
type Format int

//go:generate go tool stringer -linecomment -type=Format
const (
	FORMAT_NONE = Format(0) // -
	FORMAT_R    = Format(1) // R
	FORMAT_I    = Format(2) // I
	FORMAT_S    = Format(3) // S
	FORMAT_B    = Format(4) // B
	FORMAT_U    = Format(5) // U
	FORMAT_J    = Format(6) // J
)

// encoding is the fixed part of an instruction word.
type encoding struct {
	format Format
	opcode uint32
	funct3 uint32
	funct7 uint32 // R-type funct7, or imm[11:5] of shift-immediates.
}

var encodings = map[Op]encoding{
	OP_LUI:     {FORMAT_U, OPCODE_LUI, 0, 0},
	OP_AUIPC:   {FORMAT_U, OPCODE_AUIPC, 0, 0},
	OP_JAL:     {FORMAT_J, OPCODE_JAL, 0, 0},
	OP_JALR:    {FORMAT_I, OPCODE_JALR, 0b000, 0},
	OP_BEQ:     {FORMAT_B, OPCODE_BRANCH, 0b000, 0},
	OP_BNE:     {FORMAT_B, OPCODE_BRANCH, 0b001, 0},
	OP_BLT:     {FORMAT_B, OPCODE_BRANCH, 0b100, 0},
	OP_BGE:     {FORMAT_B, OPCODE_BRANCH, 0b101, 0},
	OP_BLTU:    {FORMAT_B, OPCODE_BRANCH, 0b110, 0},
	OP_BGEU:    {FORMAT_B, OPCODE_BRANCH, 0b111, 0},
	OP_LB:      {FORMAT_I, OPCODE_LOAD, 0b000, 0},
	OP_LH:      {FORMAT_I, OPCODE_LOAD, 0b001, 0},
	OP_LW:      {FORMAT_I, OPCODE_LOAD, 0b010, 0},
	OP_LBU:     {FORMAT_I, OPCODE_LOAD, 0b100, 0},
	OP_LHU:     {FORMAT_I, OPCODE_LOAD, 0b101, 0},
	OP_SB:      {FORMAT_S, OPCODE_STORE, 0b000, 0},
	OP_SH:      {FORMAT_S, OPCODE_STORE, 0b001, 0},
	OP_SW:      {FORMAT_S, OPCODE_STORE, 0b010, 0},
	OP_ADDI:    {FORMAT_I, OPCODE_OP_IMM, 0b000, 0},
	OP_SLTI:    {FORMAT_I, OPCODE_OP_IMM, 0b010, 0},
	OP_SLTIU:   {FORMAT_I, OPCODE_OP_IMM, 0b011, 0},
	OP_XORI:    {FORMAT_I, OPCODE_OP_IMM, 0b100, 0},
	OP_ORI:     {FORMAT_I, OPCODE_OP_IMM, 0b110, 0},
	OP_ANDI:    {FORMAT_I, OPCODE_OP_IMM, 0b111, 0},
	OP_SLLI:    {FORMAT_I, OPCODE_OP_IMM, 0b001, 0b000_0000},
	OP_SRLI:    {FORMAT_I, OPCODE_OP_IMM, 0b101, 0b000_0000},
	OP_SRAI:    {FORMAT_I, OPCODE_OP_IMM, 0b101, 0b010_0000},
	OP_ADD:     {FORMAT_R, OPCODE_OP, 0b000, 0b000_0000},
	OP_SUB:     {FORMAT_R, OPCODE_OP, 0b000, 0b010_0000},
	OP_SLL:     {FORMAT_R, OPCODE_OP, 0b001, 0b000_0000},
	OP_SLT:     {FORMAT_R, OPCODE_OP, 0b010, 0b000_0000},
	OP_SLTU:    {FORMAT_R, OPCODE_OP, 0b011, 0b000_0000},
	OP_XOR:     {FORMAT_R, OPCODE_OP, 0b100, 0b000_0000},
	OP_SRL:     {FORMAT_R, OPCODE_OP, 0b101, 0b000_0000},
	OP_SRA:     {FORMAT_R, OPCODE_OP, 0b101, 0b010_0000},
	OP_OR:      {FORMAT_R, OPCODE_OP, 0b110, 0b000_0000},
	OP_AND:     {FORMAT_R, OPCODE_OP, 0b111, 0b000_0000},
	OP_FENCE:   {FORMAT_I, OPCODE_MISC_MEM, 0b000, 0},
	OP_FENCE_I: {FORMAT_I, OPCODE_MISC_MEM, 0b001, 0},
	OP_ECALL:   {FORMAT_I, OPCODE_SYSTEM, 0b000, 0},
	OP_EBREAK:  {FORMAT_I, OPCODE_SYSTEM, 0b000, 0},
}

// Format returns the encoding layout of the operation.
func (op Op) Format() Format {
	return encodings[op].format
}

// IsShift returns true for the shift-by-immediate operations, whose
// immediate is a 5-bit shift amount.
func (op Op) IsShift() bool {
	return op == OP_SLLI || op == OP_SRLI || op == OP_SRAI
}

// IsLoad returns true for memory loads.
func (op Op) IsLoad() bool {
	return op >= OP_LB && op <= OP_LHU
}

// IsStore returns true for memory stores.
func (op Op) IsStore() bool {
	return op >= OP_SB && op <= OP_SW
}

// IsBranch returns true for conditional branches.
func (op Op) IsBranch() bool {
	return op >= OP_BEQ && op <= OP_BGEU
}

// WritesRd returns true if the operation writes a destination register.
func (op Op) WritesRd() bool {
	switch op.Format() {
	case FORMAT_R, FORMAT_U, FORMAT_J:
		return true
	case FORMAT_I:
		return op != OP_FENCE && op != OP_FENCE_I && op != OP_ECALL && op != OP_EBREAK
	}
	return false
}

// Ops returns every valid operation, in Op order.
func Ops() (ops []Op) {
	for op := OP_LUI; op <= OP_EBREAK; op++ {
		ops = append(ops, op)
	}
	return
}

// ParseOp looks up an operation by mnemonic.
func ParseOp(name string) (op Op, ok bool) {
	for _, op = range Ops() {
		if op.String() == name {
			ok = true
			return
		}
	}
	op = OP_INVALID
	return
}
