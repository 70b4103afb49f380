// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ezrec/rvsim/cpu"
	"github.com/ezrec/rvsim/emulator"
	"github.com/ezrec/rvsim/isa"
	"github.com/ezrec/rvsim/loader"
	"github.com/ezrec/rvsim/memory"
)

type options struct {
	config   string
	verbose  bool
	isa      string
	base     uint32
	size     int
	entry    uint32
	max      int
	loadAddr uint32
}

// configure builds the emulator configuration from the config file, if
// any, and the flags the user set.
func (opt *options) configure(cmd *cobra.Command) (cfg emulator.Config, err error) {
	cfg = emulator.DefaultConfig()
	if len(opt.config) != 0 {
		cfg, err = emulator.LoadConfigFile(opt.config)
		if err != nil {
			return
		}
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = opt.verbose
	}
	if flags.Changed("isa") {
		cfg.ISA = opt.isa
	}
	if flags.Changed("size") {
		cfg.Memory.Size = opt.size
	}
	if flags.Changed("base") {
		cfg.Memory.Base = opt.base
		cfg.Entry = opt.base
	}
	if flags.Changed("entry") {
		cfg.Entry = opt.entry
	}
	if flags.Changed("max") {
		cfg.MaxInstructions = opt.max
	}

	err = cfg.Validate()
	return
}

// open creates an emulator running the program in path.
//
// ELF executables are detected by their magic number, files ending in
// .bin are flat images placed at the load address, and anything else is
// assembled.
func (opt *options) open(cmd *cobra.Command, path string) (emu *emulator.Emulator, err error) {
	cfg, err := opt.configure(cmd)
	if err != nil {
		return
	}

	emu, err = emulator.NewEmulator(cfg)
	if err != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	loadAddr := cfg.Memory.Base
	if cmd.Flags().Changed("load-addr") {
		loadAddr = opt.loadAddr
	}

	switch {
	case bytes.HasPrefix(data, []byte(elf.ELFMAG)):
		emu.SetBoot(func(mem memory.Memory) (*loader.Image, error) {
			return loader.LoadELF(mem, bytes.NewReader(data))
		})
	case strings.EqualFold(filepath.Ext(path), ".bin"):
		emu.SetBoot(func(mem memory.Memory) (*loader.Image, error) {
			return loader.LoadBinary(mem, loadAddr, bytes.NewReader(data))
		})
	default:
		err = emu.Assemble(bytes.NewReader(data))
		if err != nil {
			err = fmt.Errorf("%v: %w", path, err)
			return
		}
	}

	err = emu.Reset()
	return
}

func runCommand(opt *options) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a program until it halts or faults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, err := opt.open(cmd, args[0])
			if err != nil {
				return
			}

			done, err := emu.Run(0)
			if !quiet {
				emu.Dump(cmd.OutOrStdout())
			}
			if err != nil {
				return
			}
			if !done {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v after %v instructions\n", cpu.Condition(err), emu.Cpu.Steps)
			}
			return
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not dump registers on exit")

	return cmd
}

func asmCommand(opt *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "asm FILE",
		Short: "Assemble a program to a flat binary, or list it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, err := opt.open(cmd, args[0])
			if err != nil {
				return
			}
			prog := emu.Program

			if len(output) != 0 {
				err = os.WriteFile(output, prog.Binary(), 0o644)
				return
			}

			w := cmd.OutOrStdout()
			for _, op := range prog.Opcodes {
				for n, code := range op.Codes {
					text := ""
					if n == 0 {
						text = "; " + strings.Join(op.Words, " ")
					}
					fmt.Fprintf(w, "%08x: %08x  %-28v %4d %v\n", op.Pc+uint32(4*n), code.Raw, code, op.LineNo, text)
				}
			}
			for name, addr := range prog.Symbols() {
				fmt.Fprintf(w, "%08x: %v\n", addr, name)
			}
			return
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Binary output file")

	return cmd
}

func disasmCommand(opt *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm FILE",
		Short: "Disassemble a flat binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := opt.configure(cmd)
			if err != nil {
				return
			}
			isaCfg, err := cfg.IsaConfig()
			if err != nil {
				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return
			}

			addr := cfg.Memory.Base
			if cmd.Flags().Changed("load-addr") {
				addr = opt.loadAddr
			}

			err = disassemble(cmd.OutOrStdout(), isaCfg, addr, data)
			return
		},
	}

	return cmd
}

func disassemble(w io.Writer, cfg isa.Config, addr uint32, data []byte) (err error) {
	mem := memory.NewFlat((len(data)+3)&^3, addr)
	_, err = loader.LoadBinary(mem, addr, bytes.NewReader(data))
	if err != nil {
		return
	}

	for offset := 0; offset < mem.Size(); offset += 4 {
		pc := addr + uint32(offset)
		raw, _ := mem.Load32(pc)
		code, derr := cfg.Decode(raw)
		if derr != nil {
			code = isa.Instruction{Op: isa.OP_INVALID, Raw: raw}
		}
		_, err = fmt.Fprintf(w, "%08x: %08x  %v\n", pc, raw, code)
		if err != nil {
			return
		}
	}

	return
}

func monitorCommand(opt *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor FILE",
		Short: "Step through a program interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, err := opt.open(cmd, args[0])
			if err != nil {
				return
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "rvsim> ",
				HistoryFile: filepath.Join(os.TempDir(), "rvsim_history"),
				AutoComplete: readline.NewPrefixCompleter(
					readline.PcItem("step"),
					readline.PcItem("run"),
					readline.PcItem("regs"),
					readline.PcItem("pc"),
					readline.PcItem("mem"),
					readline.PcItem("disasm"),
					readline.PcItem("reset"),
					readline.PcItem("help"),
					readline.PcItem("quit"),
				),
			})
			if err != nil {
				return
			}
			defer rl.Close()

			fmt.Fprintf(rl.Stdout(), "%v: %v\n", args[0], emu.Cpu.Config)
			emu.Command(rl.Stdout(), "pc")

			for {
				line, rerr := rl.Readline()
				if rerr != nil {
					break
				}

				quit, cerr := emu.Command(rl.Stdout(), line)
				if cerr != nil {
					fmt.Fprintln(rl.Stderr(), cerr)
				}
				if quit {
					break
				}
			}

			return
		},
	}

	return cmd
}

func newRootCommand() *cobra.Command {
	opt := &options{}

	var rootCmd = &cobra.Command{
		Use:          "rvsim",
		Short:        "RV32I instruction set simulator",
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opt.config, "config", "c", "", "TOML configuration file")
	flags.BoolVarP(&opt.verbose, "verbose", "v", false, "Trace every instruction")
	flags.StringVar(&opt.isa, "isa", emulator.DEFAULT_ISA, "ISA string, e.g. rv32i_zifencei")
	flags.Uint32Var(&opt.base, "base", 0, "Memory window base address")
	flags.IntVar(&opt.size, "size", emulator.DEFAULT_MEMORY_SIZE, "Memory window size in bytes")
	flags.Uint32Var(&opt.entry, "entry", 0, "Entry point (default: memory base)")
	flags.IntVar(&opt.max, "max", 0, "Instruction limit, 0 for none")
	flags.Uint32Var(&opt.loadAddr, "load-addr", 0, "Load address of .bin images (default: memory base)")

	rootCmd.AddCommand(
		runCommand(opt),
		asmCommand(opt),
		disasmCommand(opt),
		monitorCommand(opt),
	)

	return rootCmd
}

func main() {
	log.SetFlags(0)

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
