package emulator

import (
	"bytes"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rvsim/cpu"
	"github.com/ezrec/rvsim/isa"
	"github.com/ezrec/rvsim/loader"
	"github.com/ezrec/rvsim/memory"
)

var sumProgram = []string{
	"_start:",
	"    li   a0, 0",
	"    li   t0, 10",
	"loop:",
	"    add  a0, a0, t0",
	"    addi t0, t0, -1",
	"    bnez t0, loop",
	"    ecall",
}

func newEmulator(t *testing.T, cfg Config, program ...string) (emu *Emulator) {
	require := require.New(t)

	emu, err := NewEmulator(cfg)
	require.NoError(err)

	err = emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(err)

	err = emu.Reset()
	require.NoError(err)

	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(DefaultConfig())
	assert.NoError(err)
	assert.False(emu.Verbose)
	assert.Equal(DEFAULT_MEMORY_SIZE, emu.Memory.Size())
	assert.Equal(isa.DefaultConfig(), emu.Cpu.Config)

	cfg := DefaultConfig()
	cfg.ISA = "rv32imac"
	_, err = NewEmulator(cfg)
	assert.ErrorIs(err, isa.ErrExtensionUnsupported)
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, DefaultConfig(), sumProgram...)

	done, err := emu.Run(0)
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint32(55), emu.Cpu.Register(isa.REG_A0))
	assert.Equal(2+3*10+1, emu.Cpu.Steps)
	assert.Equal(0, emu.LineNo())

	// Halted programs stay halted.
	done, err = emu.Run(10)
	assert.NoError(err)
	assert.True(done)
	assert.Equal(2+3*10+1, emu.Cpu.Steps)

	// Reset reloads the program.
	assert.NoError(emu.Reset())
	assert.Equal(uint32(0), emu.Cpu.Register(isa.REG_A0))
	assert.Equal(2, emu.LineNo())
}

func TestEmulator_Tick(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, DefaultConfig(), sumProgram...)

	for _, op := range emu.Program.Opcodes[:4] {
		assert.Equal(op.LineNo, emu.LineNo())
		assert.Equal(op.Pc, emu.Cpu.Pc())

		code, err := emu.Code()
		assert.NoError(err)
		assert.Equal(op.Codes[0].Op, code.Op)
		assert.Equal(op.Codes[0].Raw, code.Raw)

		done, err := emu.Tick()
		assert.NoError(err)
		assert.False(done)
	}
}

func TestEmulator_Entry(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.Memory.Base = 0x8000
	cfg.Entry = 0x8004

	emu := newEmulator(t, cfg,
		"    li a0, 1",
		"    li a0, 2",
		"    ecall",
	)
	assert.Equal(uint32(0x8000), emu.Program.Base)
	assert.Equal(uint32(0x8004), emu.Cpu.Pc())
	assert.Equal(uint32(0x8004), emu.Image.Entry)

	done, err := emu.Run(0)
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint32(2), emu.Cpu.Register(isa.REG_A0))

	// A _start label overrides the configured entry.
	emu = newEmulator(t, cfg,
		"    li a0, 1",
		"    ecall",
		"_start:",
		"    li a0, 3",
		"    ecall",
	)
	assert.Equal(uint32(0x8008), emu.Cpu.Pc())
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, DefaultConfig(),
		"    nop",
		"    lw a0, 2(zero)",
	)

	done, err := emu.Tick()
	assert.NoError(err)
	assert.False(done)

	done, err = emu.Tick()
	assert.False(done)
	assert.ErrorIs(err, cpu.ErrMisaligned)
	var runtime *ErrRuntime
	if assert.ErrorAs(err, &runtime) {
		assert.Equal(2, runtime.LineNo)
	}
	assert.Equal(cpu.COND_FAULTED, cpu.Condition(err))

	// Faults are sticky.
	_, err = emu.Run(0)
	assert.ErrorIs(err, cpu.ErrMisaligned)
	assert.Equal(uint32(4), emu.Cpu.Pc())
}

func TestEmulator_Limit(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.MaxInstructions = 5

	emu := newEmulator(t, cfg, "loop: j loop")

	done, err := emu.Run(0)
	assert.NoError(err)
	assert.False(done)
	assert.Equal(5, emu.Cpu.Steps)

	done, err = emu.Run(3)
	assert.NoError(err)
	assert.False(done)
	assert.Equal(8, emu.Cpu.Steps)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.Memory.Size = 0x2000
	emu, err := NewEmulator(cfg)
	assert.NoError(err)

	defines := maps.Collect(emu.Defines())
	assert.Equal("8192", defines["MEMORY_SIZE"])
	assert.Equal("0x00000000", defines["MEMORY_BASE"])
	assert.Equal("32", defines["XLEN"])

	emu = newEmulator(t, cfg,
		"    li a0, MEMORY_SIZE",
		"    li a1, XLEN",
		"    ecall",
	)
	_, err = emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint32(0x2000), emu.Cpu.Register(isa.REG_A0))
	assert.Equal(uint32(32), emu.Cpu.Register(isa.REG_A0+1))
}

func TestEmulator_Boot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	emu, err := NewEmulator(DefaultConfig())
	require.NoError(err)

	emu.SetBoot(func(mem memory.Memory) (*loader.Image, error) {
		img, err := loader.LoadWords(mem, 0x100, []uint32{0x00700513, 0x00000073})
		if err == nil {
			img.Symbols["entry"] = 0x100
		}
		return img, err
	})
	require.NoError(emu.Reset())

	assert.Equal(uint32(0x100), emu.Cpu.Pc())
	assert.Equal(0, emu.LineNo())
	addr, ok := emu.Program.Symbol("entry")
	assert.True(ok)
	assert.Equal(uint32(0x100), addr)

	done, err := emu.Run(0)
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint32(7), emu.Cpu.Register(isa.REG_A0))
}

func TestEmulator_Dump(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, DefaultConfig(), sumProgram...)

	var buf bytes.Buffer
	assert.NoError(emu.Dump(&buf))
	assert.True(strings.HasPrefix(buf.String(), "pc: 0x00000000  steps: 0  state: running\n"))

	_, err := emu.Run(0)
	assert.NoError(err)

	buf.Reset()
	assert.NoError(emu.Dump(&buf))
	text := buf.String()
	assert.Contains(text, "state: halted")
	assert.Contains(text, "x10/a0   0x00000037")
	assert.Contains(text, "x00/zero 0x00000000")
	assert.Equal(1+8, strings.Count(text, "\n"))
}
