package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseISA(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		isa    string
		expect Extension
		err    error
	}{
		{"rv32i", EXT_I, nil},
		{"RV32I", EXT_I, nil},
		{" rv32i_zifencei ", EXT_I | EXT_ZIFENCEI, nil},
		{"RV32I_Zifencei", EXT_I | EXT_ZIFENCEI, nil},
		{"rv32im", 0, ErrExtensionUnsupported},
		{"rv32i_zicsr", 0, ErrExtensionUnsupported},
		{"rv32e", 0, ErrIsaInvalid},
		{"rv64i", 0, ErrIsaInvalid},
		{"rv32", 0, ErrIsaInvalid},
		{"rv32i_", 0, ErrIsaInvalid},
		{"", 0, ErrIsaInvalid},
	}

	for _, entry := range table {
		cfg, err := ParseISA(entry.isa)
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.isa)
			continue
		}
		assert.NoError(err, entry.isa)
		assert.Equal(entry.expect, cfg.Extensions, entry.isa)
		assert.NoError(cfg.Validate(), entry.isa)
	}
}

func TestParseISAExtensionName(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseISA("rv32im")
	assert.Equal(ErrExtension("m"), err)

	_, err = ParseISA("rv32i_zicsr")
	assert.Equal(ErrExtension("zicsr"), err)
}

func TestConfigString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("rv32i", DefaultConfig().String())
	assert.Equal("rv32i_zifencei", Config{Extensions: EXT_I | EXT_ZIFENCEI}.String())

	for _, isa := range []string{"rv32i", "rv32i_zifencei"} {
		cfg, err := ParseISA(isa)
		assert.NoError(err)
		assert.Equal(isa, cfg.String())
	}
}

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(DefaultConfig().Validate())
	assert.ErrorIs(Config{}.Validate(), ErrExtensionBase)
	assert.ErrorIs(Config{Extensions: EXT_ZIFENCEI}.Validate(), ErrExtensionBase)
	assert.ErrorIs(Config{Extensions: EXT_I | Extension(1<<8)}.Validate(), ErrExtensionUnsupported)
}
