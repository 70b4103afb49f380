package emulator

import (
	"errors"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/rvsim/isa"
)

const (
	DEFAULT_MEMORY_SIZE = 64 * 1024 // Bytes of memory in the default window.
	DEFAULT_ISA         = "rv32i"
)

// MemoryConfig describes the flat memory window.
type MemoryConfig struct {
	Base uint32 `toml:"base"` // First address of the window.
	Size int    `toml:"size"` // Window size in bytes.
}

// Config is the emulator configuration, usually read from a TOML file:
//
//	isa = "rv32i_zifencei"
//	entry = 0x8000
//	max_instructions = 100000
//	verbose = false
//
//	[memory]
//	base = 0x8000
//	size = 65536
type Config struct {
	ISA             string       `toml:"isa"`              // ISA string.
	Entry           uint32       `toml:"entry"`            // Program counter after reset.
	MaxInstructions int          `toml:"max_instructions"` // Run limit, 0 for unlimited.
	Verbose         bool         `toml:"verbose"`          // Instruction trace.
	Memory          MemoryConfig `toml:"memory"`
}

// DefaultConfig is 64KiB of RV32I memory at address zero.
func DefaultConfig() Config {
	return Config{
		ISA: DEFAULT_ISA,
		Memory: MemoryConfig{
			Size: DEFAULT_MEMORY_SIZE,
		},
	}
}

// LoadConfig decodes TOML from r over the defaults.
// When no entry point is given, it is the memory base.
func LoadConfig(r io.Reader) (cfg Config, err error) {
	cfg = DefaultConfig()

	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return
	}

	err = checkMetaData(&cfg, md)
	return
}

// LoadConfigFile reads a TOML configuration file.
func LoadConfigFile(path string) (cfg Config, err error) {
	cfg = DefaultConfig()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return
	}

	err = checkMetaData(&cfg, md)
	return
}

func checkMetaData(cfg *Config, md toml.MetaData) (err error) {
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		err = errors.Join(ErrConfigKey, errors.New(strings.Join(keys, ", ")))
		return
	}

	if !md.IsDefined("entry") {
		cfg.Entry = cfg.Memory.Base
	}

	err = cfg.Validate()
	return
}

// IsaConfig returns the parsed ISA string.
func (cfg *Config) IsaConfig() (isaCfg isa.Config, err error) {
	isaCfg, err = isa.ParseISA(cfg.ISA)
	return
}

// Validate checks the ISA string, memory window, and entry point.
func (cfg *Config) Validate() (err error) {
	_, err = cfg.IsaConfig()
	if err != nil {
		return
	}

	mem := cfg.Memory
	switch {
	case mem.Size <= 0, mem.Size%4 != 0:
		err = ErrConfigMemory
	case uint64(mem.Base)+uint64(mem.Size) > 1<<32:
		err = ErrConfigMemory
	case mem.Base%4 != 0:
		err = ErrConfigAlign
	case cfg.Entry%4 != 0:
		err = ErrConfigAlign
	case cfg.Entry < mem.Base, uint64(cfg.Entry) >= uint64(mem.Base)+uint64(mem.Size):
		err = ErrConfigEntry
	case cfg.MaxInstructions < 0:
		err = ErrConfigMaxInsts
	}

	return
}
