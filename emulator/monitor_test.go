package emulator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rvsim/isa"
)

func TestCommand(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, DefaultConfig(), sumProgram...)
	var buf bytes.Buffer

	run := func(line string) string {
		buf.Reset()
		quit, err := emu.Command(&buf, line)
		assert.NoError(err, line)
		assert.False(quit, line)
		return buf.String()
	}

	assert.Equal("", run("   "))
	assert.Equal("pc: 0x00000000 (line 2)\n", run("pc"))

	out := run("step")
	assert.True(strings.HasPrefix(out, "00000000: "), out)
	assert.True(strings.HasSuffix(out, "pc: 0x00000004 (line 3)\n"), out)

	out = run("step 2")
	assert.Equal(3, strings.Count(out, "\n"))
	assert.Contains(out, "pc: 0x0000000c (line 6)")

	out = run("disasm loop 2")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if assert.Len(lines, 2) {
		assert.True(strings.HasPrefix(lines[0], " 00000008: "), lines[0])
		assert.True(strings.HasPrefix(lines[1], ">0000000c: "), lines[1])
	}

	out = run("run")
	assert.Contains(out, "halted: ")
	assert.Equal(uint32(55), emu.Cpu.Register(isa.REG_A0))

	out = run("regs")
	assert.Contains(out, "x10/a0   0x00000037")

	out = run("mem 0 20")
	assert.Equal(2, strings.Count(out, "\n"))
	assert.True(strings.HasPrefix(out, "00000000: 13 05 00 00"), out)
	assert.Contains(out, "00000010: ")

	out = run("reset")
	assert.Equal("pc: 0x00000000 (line 2)\n", out)
	assert.Equal(uint32(0), emu.Cpu.Register(isa.REG_A0))

	out = run("run 4")
	assert.Equal("4 steps\npc: 0x00000010 (line 7)\n", out)

	out = run("help")
	assert.Equal(8, strings.Count(out, "\n"))

	quit, err := emu.Command(&buf, "quit")
	assert.NoError(err)
	assert.True(quit)

	quit, err = emu.Command(&buf, "EXIT")
	assert.NoError(err)
	assert.True(quit)
}

func TestCommandErrors(t *testing.T) {
	emu := newEmulator(t, DefaultConfig(), sumProgram...)

	table := map[string]error{
		"frobnicate":     ErrCommandUnknown,
		"regs 1":         ErrCommandArgs,
		"step 0":         ErrCommandArgument,
		"step many":      ErrCommandArgument,
		"mem":            ErrCommandArgs,
		"mem nowhere":    ErrCommandArgument,
		"disasm 0 1 2":   ErrCommandArgs,
		"mem 0xfffffff0": nil,
	}

	for line, want := range table {
		t.Run(line, func(t *testing.T) {
			var buf bytes.Buffer
			quit, err := emu.Command(&buf, line)
			assert.False(t, quit)
			if want == nil {
				assert.Error(t, err)
			} else {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestCommandFault(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, DefaultConfig(), "    lw a0, 1(zero)")

	var buf bytes.Buffer
	quit, err := emu.Command(&buf, "step")
	assert.NoError(err)
	assert.False(quit)
	assert.Contains(buf.String(), "fault: line 1 ")
	assert.Contains(buf.String(), "pc: 0x00000000 (line 1)")
}
