package isa

import (
	"strings"
)

// Extension is a set of ISA extensions.
type Extension uint32

const (
	EXT_I        = Extension(1 << 0) // Base integer set, always required.
	EXT_ZIFENCEI = Extension(1 << 1) // Instruction-fetch fence.
)

// Config gates which encodings the decoder accepts.
type Config struct {
	Extensions Extension
}

// DefaultConfig is plain RV32I.
func DefaultConfig() Config {
	return Config{Extensions: EXT_I}
}

// Has returns true if every extension in ext is enabled.
func (cfg Config) Has(ext Extension) bool {
	return cfg.Extensions&ext == ext
}

// Validate checks that the configuration describes an executable ISA.
func (cfg Config) Validate() (err error) {
	if !cfg.Has(EXT_I) {
		err = ErrExtensionBase
		return
	}

	if cfg.Extensions&^(EXT_I|EXT_ZIFENCEI) != 0 {
		err = ErrExtensionUnsupported
		return
	}

	return
}

// String returns the ISA string, e.g. "rv32i_zifencei".
func (cfg Config) String() string {
	var sb strings.Builder
	sb.WriteString("rv32")
	if cfg.Has(EXT_I) {
		sb.WriteString("i")
	}
	if cfg.Has(EXT_ZIFENCEI) {
		sb.WriteString("_zifencei")
	}
	return sb.String()
}

// multiLetter maps the supported multi-letter extension names.
var multiLetter = map[string]Extension{
	"zifencei": EXT_ZIFENCEI,
}

// ParseISA parses an ISA string such as "rv32i" or "RV32I_Zifencei".
func ParseISA(isa string) (cfg Config, err error) {
	isa = strings.ToLower(strings.TrimSpace(isa))

	rest, ok := strings.CutPrefix(isa, "rv32")
	if !ok || len(rest) == 0 {
		err = ErrIsaInvalid
		return
	}

	parts := strings.Split(rest, "_")

	single := parts[0]
	if len(single) == 0 || single[0] != 'i' {
		err = ErrIsaInvalid
		return
	}
	cfg.Extensions = EXT_I
	if len(single) > 1 {
		err = ErrExtension(single[1:2])
		return
	}

	for _, name := range parts[1:] {
		ext, ok := multiLetter[name]
		if !ok {
			if len(name) == 0 {
				err = ErrIsaInvalid
			} else {
				err = ErrExtension(name)
			}
			return
		}
		cfg.Extensions |= ext
	}

	return
}
