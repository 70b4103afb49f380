package cpu

import (
	"errors"
	"fmt"
	"log"

	"github.com/ezrec/rvsim/isa"
	"github.com/ezrec/rvsim/memory"
)

// Cpu is the architectural state of a single RV32I hart.
type Cpu struct {
	Verbose bool       // Set to enable verbose instruction tracing.
	Config  isa.Config // Enabled ISA extensions.

	Steps int // Instructions retired since reset.

	pc       uint32
	register [isa.REGISTER_COUNT]uint32
	signal   error // Pending *Halt or *Fault.
}

// Option configures a new Cpu.
type Option func(cpu *Cpu)

// WithRegisters sets initial register values, indexed by register number.
// Entries for x0 or out of range registers are ignored.
func WithRegisters(regs map[int]uint32) Option {
	return func(cpu *Cpu) {
		for n, value := range regs {
			cpu.SetRegister(n, value)
		}
	}
}

// WithConfig selects the ISA extensions the decoder accepts.
func WithConfig(cfg isa.Config) Option {
	return func(cpu *Cpu) {
		cpu.Config = cfg
	}
}

// WithVerbose enables instruction tracing.
func WithVerbose(verbose bool) Option {
	return func(cpu *Cpu) {
		cpu.Verbose = verbose
	}
}

// NewCpu creates a Cpu at pc with all registers zero, unless set by opts.
func NewCpu(pc uint32, opts ...Option) (cpu *Cpu) {
	cpu = &Cpu{
		Config: isa.DefaultConfig(),
		pc:     pc,
	}

	for _, opt := range opts {
		opt(cpu)
	}

	return
}

// Reset clears the registers, counters, and any pending signal, and
// sets the program counter to pc.
func (cpu *Cpu) Reset(pc uint32) {
	if cpu.Verbose {
		log.Printf("cpu: reset to 0x%08x", pc)
	}

	clear(cpu.register[:])
	cpu.pc = pc
	cpu.Steps = 0
	cpu.signal = nil
}

// Pc returns the program counter.
func (cpu *Cpu) Pc() uint32 {
	return cpu.pc
}

// SetPc moves the program counter.
func (cpu *Cpu) SetPc(pc uint32) {
	cpu.pc = pc
}

// Register returns the value of register n; out of range reads as zero.
func (cpu *Cpu) Register(n int) uint32 {
	if n < 0 || n >= isa.REGISTER_COUNT {
		return 0
	}
	return cpu.register[n]
}

// SetRegister writes register n. Writes to x0 are discarded.
func (cpu *Cpu) SetRegister(n int, value uint32) {
	if n <= 0 || n >= isa.REGISTER_COUNT {
		return
	}
	cpu.register[n] = value
}

// Registers returns a copy of the register file.
func (cpu *Cpu) Registers() [isa.REGISTER_COUNT]uint32 {
	return cpu.register
}

// Halted returns true if an ECALL or EBREAK stopped the Cpu.
func (cpu *Cpu) Halted() bool {
	return errors.Is(cpu.signal, ErrHalt)
}

// Signal returns the pending halt or fault, if any.
func (cpu *Cpu) Signal() error {
	return cpu.signal
}

// Resume clears a pending halt or fault so that execution may continue.
func (cpu *Cpu) Resume() {
	cpu.signal = nil
}

// String returns the program counter and register file, four registers
// to a line, with ABI names.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("%4s: %08x\n", "pc", cpu.pc)
	for n := range isa.REGISTER_COUNT {
		text += fmt.Sprintf("%4s: %08x", isa.RegisterName(uint8(n)), cpu.register[n])
		if n%4 == 3 {
			text += "\n"
		} else {
			text += " "
		}
	}

	return
}

// Step fetches, decodes, and executes the instruction at the program
// counter.
//
// A nil return means execution may continue. Otherwise the error is a
// *Halt or *Fault, which is also returned by every further Step until
// Resume is called.
func (cpu *Cpu) Step(mem memory.Memory) (err error) {
	if cpu.signal != nil {
		err = cpu.signal
		return
	}

	defer func() {
		if err != nil {
			cpu.signal = err
			if cpu.Verbose {
				log.Printf("cpu: %v", err)
			}
		}
	}()

	pc := cpu.pc
	if pc%4 != 0 {
		err = &Fault{
			Kind:   FAULT_MISALIGNED,
			Access: memory.ACCESS_FETCH,
			Pc:     pc,
			Addr:   pc,
			Err:    &memory.ErrAccess{Op: memory.ACCESS_FETCH, Addr: pc, Size: 4, Err: memory.ErrMisaligned},
		}
		return
	}

	raw, err := mem.Load32(pc)
	if err != nil {
		err = memoryFault(memory.ACCESS_FETCH, pc, pc, 0, err)
		return
	}

	inst, err := cpu.Config.Decode(raw)
	if err != nil {
		err = &Fault{Kind: FAULT_ILLEGAL_ENCODING, Access: memory.ACCESS_FETCH, Pc: pc, Addr: pc, Raw: raw, Err: err}
		return
	}

	err = cpu.Execute(inst, pc, mem)

	return
}

// Run executes up to max instructions.
//
// It returns the number of instructions executed, counting a halting
// ECALL or EBREAK but not a faulting instruction, and nil if max was
// reached. Use Condition to classify the returned error.
func (cpu *Cpu) Run(mem memory.Memory, max int) (steps int, err error) {
	if cpu.signal != nil {
		err = cpu.signal
		return
	}

	for steps < max {
		err = cpu.Step(mem)
		if err != nil {
			if errors.Is(err, ErrHalt) {
				steps++
			}
			return
		}
		steps++
	}

	return
}

// memoryFault converts a memory error into a Fault of the matching kind.
func memoryFault(access memory.Access, pc uint32, addr uint32, raw uint32, err error) *Fault {
	kind := FAULT_OUT_OF_BOUNDS
	if errors.Is(err, memory.ErrMisaligned) {
		kind = FAULT_MISALIGNED
	}

	return &Fault{Kind: kind, Access: access, Pc: pc, Addr: addr, Raw: raw, Err: err}
}
