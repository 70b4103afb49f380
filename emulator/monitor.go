package emulator

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ezrec/rvsim/translate"
)

const (
	MONITOR_MEM_LENGTH   = 64 // Default bytes shown by "mem".
	MONITOR_DISASM_COUNT = 8  // Default instructions shown by "disasm".
	MONITOR_ROW_BYTES    = 16 // Bytes per "mem" row.
)

type command struct {
	usage string
	args  int // Maximum argument count.
	run   func(emu *Emulator, w io.Writer, args []string) (quit bool, err error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"step":   {"step [N]", 1, (*Emulator).cmdStep},
		"run":    {"run [N]", 1, (*Emulator).cmdRun},
		"regs":   {"regs", 0, (*Emulator).cmdRegs},
		"pc":     {"pc", 0, (*Emulator).cmdPc},
		"mem":    {"mem ADDR [LEN]", 2, (*Emulator).cmdMem},
		"disasm": {"disasm [ADDR] [N]", 2, (*Emulator).cmdDisasm},
		"reset":  {"reset", 0, (*Emulator).cmdReset},
		"help":   {"help", 0, (*Emulator).cmdHelp},
		"quit":   {"quit", 0, cmdQuit},
	}
	commands["exit"] = commands["quit"]
	commands["s"] = commands["step"]
}

// Command executes one monitor console line, writing its output to w.
// Blank lines are ignored. quit is set by "quit" or "exit".
func (emu *Emulator) Command(w io.Writer, line string) (quit bool, err error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	cmd, ok := commands[strings.ToLower(words[0])]
	if !ok {
		err = &ErrCommand{Name: words[0], Err: ErrCommandUnknown}
		return
	}

	args := words[1:]
	if len(args) > cmd.args {
		err = &ErrCommand{Name: cmd.usage, Err: ErrCommandArgs}
		return
	}

	quit, err = cmd.run(emu, w, args)
	return
}

// count parses an optional positive count argument.
func count(args []string, index int, otherwise int) (n int, err error) {
	if len(args) <= index {
		n = otherwise
		return
	}

	value, perr := strconv.ParseUint(args[index], 0, 31)
	if perr != nil || value == 0 {
		err = ErrArgument(args[index])
		return
	}

	n = int(value)
	return
}

// address parses a program symbol or a number.
func (emu *Emulator) address(word string) (addr uint32, err error) {
	if value, ok := emu.Program.Symbol(word); ok {
		addr = value
		return
	}

	value, perr := strconv.ParseUint(word, 0, 32)
	if perr != nil {
		err = ErrArgument(word)
		return
	}

	addr = uint32(value)
	return
}

func (emu *Emulator) where(w io.Writer) {
	pc := emu.Cpu.Pc()
	if lineno := emu.LineNo(); lineno != 0 {
		translate.Fprintf(w, "pc: 0x%08x (line %v)\n", pc, lineno)
	} else {
		translate.Fprintf(w, "pc: 0x%08x\n", pc)
	}
}

func (emu *Emulator) report(w io.Writer, done bool, err error) {
	switch {
	case err != nil:
		translate.Fprintf(w, "fault: %v\n", err)
	case done:
		translate.Fprintf(w, "halted: %v\n", emu.Cpu.Signal())
	}
	emu.where(w)
}

func (emu *Emulator) cmdStep(w io.Writer, args []string) (quit bool, err error) {
	n, err := count(args, 0, 1)
	if err != nil {
		return
	}

	for range n {
		pc := emu.Cpu.Pc()
		code, cerr := emu.Code()
		if cerr == nil {
			fmt.Fprintf(w, "%08x: %v\n", pc, code)
		}

		done, terr := emu.Tick()
		if done || terr != nil {
			emu.report(w, done, terr)
			return
		}
	}

	emu.where(w)
	return
}

func (emu *Emulator) cmdRun(w io.Writer, args []string) (quit bool, err error) {
	n, err := count(args, 0, 0)
	if err != nil {
		return
	}

	start := emu.Cpu.Steps
	done, rerr := emu.Run(n)
	translate.Fprintf(w, "%v steps\n", emu.Cpu.Steps-start)
	emu.report(w, done, rerr)
	return
}

func (emu *Emulator) cmdRegs(w io.Writer, args []string) (quit bool, err error) {
	err = emu.Dump(w)
	return
}

func (emu *Emulator) cmdPc(w io.Writer, args []string) (quit bool, err error) {
	emu.where(w)
	return
}

func (emu *Emulator) cmdMem(w io.Writer, args []string) (quit bool, err error) {
	if len(args) == 0 {
		err = &ErrCommand{Name: commands["mem"].usage, Err: ErrCommandArgs}
		return
	}

	addr, err := emu.address(args[0])
	if err != nil {
		return
	}

	length, err := count(args, 1, MONITOR_MEM_LENGTH)
	if err != nil {
		return
	}

	data, err := emu.Memory.ReadBytes(addr, length)
	if err != nil {
		return
	}

	for row := 0; row < len(data); row += MONITOR_ROW_BYTES {
		fmt.Fprintf(w, "%08x:", addr+uint32(row))
		for _, b := range data[row:min(row+MONITOR_ROW_BYTES, len(data))] {
			fmt.Fprintf(w, " %02x", b)
		}
		fmt.Fprintln(w)
	}

	return
}

func (emu *Emulator) cmdDisasm(w io.Writer, args []string) (quit bool, err error) {
	addr := emu.Cpu.Pc()
	if len(args) > 0 {
		addr, err = emu.address(args[0])
		if err != nil {
			return
		}
	}

	n, err := count(args, 1, MONITOR_DISASM_COUNT)
	if err != nil {
		return
	}

	for range n {
		raw, lerr := emu.Memory.Load32(addr)
		if lerr != nil {
			err = lerr
			return
		}

		mark := " "
		if addr == emu.Cpu.Pc() {
			mark = ">"
		}

		code, derr := emu.Cpu.Config.Decode(raw)
		if derr != nil {
			fmt.Fprintf(w, "%s%08x: %08x  .word 0x%08x\n", mark, addr, raw, raw)
		} else {
			fmt.Fprintf(w, "%s%08x: %08x  %v\n", mark, addr, raw, code)
		}
		addr += 4
	}

	return
}

func (emu *Emulator) cmdReset(w io.Writer, args []string) (quit bool, err error) {
	err = emu.Reset()
	if err != nil {
		return
	}

	emu.where(w)
	return
}

func (emu *Emulator) cmdHelp(w io.Writer, args []string) (quit bool, err error) {
	for _, name := range []string{"step", "run", "regs", "pc", "mem", "disasm", "reset", "quit"} {
		fmt.Fprintln(w, commands[name].usage)
	}
	return
}

func cmdQuit(emu *Emulator, w io.Writer, args []string) (quit bool, err error) {
	quit = true
	return
}
