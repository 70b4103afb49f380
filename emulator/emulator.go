// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rvsim/cpu"
	"github.com/ezrec/rvsim/internal"
	"github.com/ezrec/rvsim/isa"
	"github.com/ezrec/rvsim/loader"
	"github.com/ezrec/rvsim/memory"
)

// Boot places a program image into memory.
type Boot func(mem memory.Memory) (img *loader.Image, err error)

// Emulator state. CPU + flat memory + program listing.
type Emulator struct {
	Verbose  bool          // If set, enables verbose logging.
	*cpu.Cpu               // Reference to the CPU simulation.
	Memory   *memory.Flat  // Memory window.
	Program  *cpu.Program  // Reference to the currently running program listing.
	Image    *loader.Image // Image placed by the last Reset.

	config Config
	boot   Boot
}

// NewEmulator creates a new emulator from a validated configuration.
func NewEmulator(cfg Config) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	isaCfg, err := cfg.IsaConfig()
	if err != nil {
		return
	}

	emu = &Emulator{
		Verbose: cfg.Verbose,
		Cpu:     cpu.NewCpu(cfg.Entry, cpu.WithConfig(isaCfg)),
		Memory:  memory.NewFlat(cfg.Memory.Size, cfg.Memory.Base),
		Program: &cpu.Program{Base: cfg.Memory.Base},
		config:  cfg,
	}

	return
}

// Config returns the emulator configuration.
func (emu *Emulator) Config() Config {
	return emu.config
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"MEMORY_BASE": fmt.Sprintf("0x%08x", emu.config.Memory.Base),
		"MEMORY_SIZE": fmt.Sprintf("%v", emu.config.Memory.Size),
		"MEMORY_END":  fmt.Sprintf("0x%08x", uint64(emu.config.Memory.Base)+uint64(emu.config.Memory.Size)),
	}
	return internal.IterSeq2Concat(maps.All(defines), cpu.Defines())
}

// Assemble parses source at the memory base, with the emulator defines
// available as equates, and makes it the running program.
func (emu *Emulator) Assemble(source io.Reader) (err error) {
	asm := &cpu.Assembler{
		Verbose: emu.Verbose,
		Origin:  emu.config.Memory.Base,
	}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(source)
	if err != nil {
		return
	}

	emu.Program = prog
	emu.boot = nil
	return
}

// SetBoot replaces the assembled program with an image loader, such as
// a loader.LoadELF closure. The loader is invoked on every Reset.
func (emu *Emulator) SetBoot(boot Boot) {
	emu.Program = &cpu.Program{Base: emu.config.Memory.Base}
	emu.boot = boot
}

// Reset clears memory, places the program, and resets the cpu.
//
// An assembled program starts at its _start label if it has one, and at
// the configured entry point otherwise. A boot image starts at its own
// entry point.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = false
	emu.Memory.Reset()
	emu.Image = nil

	var img *loader.Image
	entry := emu.config.Entry
	if emu.boot != nil {
		img, err = emu.boot(emu.Memory)
		if err != nil {
			return
		}
		entry = img.Entry
		emu.Program.Labels = img.Symbols
	} else {
		img, err = loader.LoadBinary(emu.Memory, emu.Program.Base, bytes.NewReader(emu.Program.Binary()))
		if err != nil {
			return
		}
		if start, ok := emu.Program.Symbol("_start"); ok {
			entry = start
		}
		img.Entry = entry
		img.Symbols = emu.Program.Labels
	}

	if emu.Verbose {
		for _, seg := range img.Segments {
			log.Printf("emulator: loaded 0x%08x: %v bytes", seg.Addr, seg.MemSize)
		}
	}

	emu.Image = img
	emu.Cpu.Reset(entry)
	emu.Cpu.Verbose = emu.Verbose

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc())
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Code returns the instruction at the program counter.
func (emu *Emulator) Code() (code isa.Instruction, err error) {
	raw, err := emu.Memory.Load32(emu.Cpu.Pc())
	if err != nil {
		return
	}

	code, err = emu.Cpu.Config.Decode(raw)
	return
}

// Tick performs a single instruction of the emulator.
//
// done is set when the program halts with ECALL or EBREAK. Faults are
// returned as an *ErrRuntime carrying the source line, if known.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step(emu.Memory)
	if errors.Is(err, cpu.ErrHalt) {
		err = nil
		done = true
	}

	return
}

// Run ticks until the program halts, faults, or max instructions have
// run. A max of zero uses the configured limit, and zero there means no
// limit.
func (emu *Emulator) Run(max int) (done bool, err error) {
	if max <= 0 {
		max = emu.config.MaxInstructions
	}

	for steps := 0; max <= 0 || steps < max; steps++ {
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
	}

	return
}

// Dump writes the program counter, run state, and register file.
func (emu *Emulator) Dump(w io.Writer) (err error) {
	state := "running"
	if signal := emu.Cpu.Signal(); signal != nil {
		state = cpu.Condition(signal).String()
	}

	_, err = fmt.Fprintf(w, "pc: 0x%08x  steps: %v  state: %v\n", emu.Cpu.Pc(), emu.Cpu.Steps, state)
	if err != nil {
		return
	}

	for n, value := range emu.Cpu.Registers() {
		sep := "  "
		if n%4 == 3 {
			sep = "\n"
		}
		_, err = fmt.Fprintf(w, "x%02d/%-4s 0x%08x%s", n, isa.RegisterName(uint8(n)), value, sep)
		if err != nil {
			return
		}
	}

	return
}
