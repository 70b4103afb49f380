package cpu

import (
	"errors"

	"github.com/ezrec/rvsim/isa"
	"github.com/ezrec/rvsim/memory"
	"github.com/ezrec/rvsim/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrIllegalEncoding = isa.ErrIllegal
	ErrMisaligned      = memory.ErrMisaligned
	ErrOutOfBounds     = memory.ErrOutOfBounds
	ErrHalt            = errors.New(f("halt requested"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrOrgBackwards       = errors.New(f(".org moves backwards"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrTargetRange        = errors.New(f("target out of range"))
)

// FaultKind distinguishes the classes of execution fault.
type FaultKind int

//go:generate go tool stringer -linecomment -type=FaultKind
const (
	FAULT_ILLEGAL_ENCODING = FaultKind(0) // illegal-encoding
	FAULT_MISALIGNED       = FaultKind(1) // misaligned
	FAULT_OUT_OF_BOUNDS    = FaultKind(2) // out-of-bounds
)

// Sentinel returns the class error matched by errors.Is.
func (kind FaultKind) Sentinel() error {
	switch kind {
	case FAULT_ILLEGAL_ENCODING:
		return ErrIllegalEncoding
	case FAULT_MISALIGNED:
		return ErrMisaligned
	default:
		return ErrOutOfBounds
	}
}

// Fault reports an instruction that could not complete.
//
// The Cpu state is unchanged by a faulting instruction, so Pc is also the
// Cpu's current program counter.
type Fault struct {
	Kind   FaultKind     // Class of fault.
	Access memory.Access // Fetch, load, or store.
	Pc     uint32        // Address of the faulting instruction.
	Addr   uint32        // Memory address of the failed access.
	Raw    uint32        // Instruction word, if fetched.
	Err    error         // Underlying decode or memory error.
}

var _ error = (*Fault)(nil)

func (fault *Fault) Error() string {
	if fault.Kind == FAULT_ILLEGAL_ENCODING {
		return f("pc 0x%08x: %v", fault.Pc, fault.Err)
	}
	return f("pc 0x%08x: %v %v at 0x%08x", fault.Pc, fault.Access.String(), fault.Kind.String(), fault.Addr)
}

func (fault *Fault) Unwrap() []error {
	if fault.Err == nil {
		return []error{fault.Kind.Sentinel()}
	}
	return []error{fault.Kind.Sentinel(), fault.Err}
}

// HaltCause is the system instruction that requested a halt.
type HaltCause int

//go:generate go tool stringer -linecomment -type=HaltCause
const (
	HALT_ECALL  = HaltCause(0) // ecall
	HALT_EBREAK = HaltCause(1) // ebreak
)

// Halt reports a simulation stop requested by ECALL or EBREAK.
type Halt struct {
	Cause HaltCause // Requesting instruction.
	Pc    uint32    // Address of the requesting instruction.
}

var _ error = (*Halt)(nil)

func (halt *Halt) Error() string {
	return f("pc 0x%08x: %v halt", halt.Pc, halt.Cause.String())
}

func (halt *Halt) Unwrap() error {
	return ErrHalt
}

// Cond is the terminating condition of a Run.
type Cond int

//go:generate go tool stringer -linecomment -type=Cond
const (
	COND_EXHAUSTED = Cond(0) // exhausted
	COND_HALTED    = Cond(1) // halted
	COND_FAULTED   = Cond(2) // faulted
)

// Condition classifies an error returned from Step or Run.
func Condition(err error) Cond {
	switch {
	case err == nil:
		return COND_EXHAUSTED
	case errors.Is(err, ErrHalt):
		return COND_HALTED
	default:
		return COND_FAULTED
	}
}

// ErrLabelMissing names a label referenced but never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSyntax locates an assembler error in the source.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %v '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseAddress string

func (err ErrParseAddress) Error() string {
	return f("'%v' is not an offset(register) address", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrMacro locates an error inside a macro expansion.
type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
