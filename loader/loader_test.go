package loader

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rvsim/memory"
)

func TestLoadBinary(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	mem := memory.NewFlat(0x100, 0x8000)
	img, err := LoadBinary(mem, 0x8010, bytes.NewReader(words(0x00100093, 0x00000073)))
	require.NoError(err)

	assert.Equal(uint32(0x8010), img.Entry)
	assert.Equal([]Segment{{Addr: 0x8010, FileSize: 8, MemSize: 8, Exec: true}}, img.Segments)

	word, err := mem.Load32(0x8014)
	require.NoError(err)
	assert.Equal(uint32(0x00000073), word)

	_, err = LoadBinary(mem, 0x80fc, bytes.NewReader(words(1, 2)))
	assert.ErrorIs(err, memory.ErrOutOfBounds)

	broken := errors.New("broken")
	_, err = LoadBinary(mem, 0x8000, iotest.ErrReader(broken))
	assert.ErrorIs(err, broken)
}

func TestLoadWords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	flat := memory.NewFlat(0x100, 0)
	stats := memory.NewStats(flat)

	img, err := LoadWords(stats, 0x10, []uint32{0x11223344, 0x55667788})
	require.NoError(err)
	assert.Equal(uint32(0x10), img.Entry)
	assert.Equal(8, stats.Stores)

	value, err := flat.Load8(0x10)
	require.NoError(err)
	assert.Equal(uint8(0x44), value)
	word, err := flat.Load32(0x14)
	require.NoError(err)
	assert.Equal(uint32(0x55667788), word)

	img, err = LoadWords(flat, 0x20, nil)
	require.NoError(err)
	assert.Empty(img.Segments)
	low, high := img.Range()
	assert.Equal(uint32(0), low)
	assert.Equal(uint64(0), high)

	_, err = LoadWords(stats, 0xfffffffc, []uint32{1, 2})
	assert.ErrorIs(err, ErrRange)
}
