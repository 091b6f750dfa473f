package hydra

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alextopher/soundfont/internal/riff"
)

// recordBuilder assembles one fixed-width hydra record field by field,
// little-endian, so test fixtures read in the same field order as the
// structs they populate.
type recordBuilder struct{ buf bytes.Buffer }

func (b *recordBuilder) name(s string, width int) *recordBuilder {
	field := make([]byte, width)
	copy(field, s)
	b.buf.Write(field)
	return b
}
func (b *recordBuilder) u16(v uint16) *recordBuilder {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}
func (b *recordBuilder) i16(v int16) *recordBuilder { return b.u16(uint16(v)) }
func (b *recordBuilder) u32(v uint32) *recordBuilder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}
func (b *recordBuilder) u8(v uint8) *recordBuilder  { b.buf.WriteByte(v); return b }
func (b *recordBuilder) i8(v int8) *recordBuilder   { b.buf.WriteByte(byte(v)); return b }
func (b *recordBuilder) bytes() []byte              { return b.buf.Bytes() }

func subChunk(id string, body []byte) []byte {
	var hdr [8]byte
	copy(hdr[0:4], id)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(body)))
	return append(hdr[:], body...)
}

// buildMinimalPdta assembles a pdta LIST body wiring a single preset ->
// instrument -> sample chain: phdr, pbag, inst, ibag and shdr hold one real
// record plus the terminal sentinel, pgen and igen one record each, and
// pmod and imod are empty.
func buildMinimalPdta() []byte {
	phdr := append(
		new(recordBuilder).name("Square", 20).u16(0).u16(0).u16(0).u32(0).u32(0).u32(0).bytes(),
		new(recordBuilder).name("EOP", 20).u16(0).u16(0).u16(1).u32(0).u32(0).u32(0).bytes()...,
	)
	pbag := append(
		new(recordBuilder).u16(0).u16(0).bytes(),
		new(recordBuilder).u16(1).u16(0).bytes()...,
	)
	pgen := new(recordBuilder).u16(41 /* genInstrument */).u16(0).bytes()

	inst := append(
		new(recordBuilder).name("Lead", 20).u16(0).bytes(),
		new(recordBuilder).name("EOI", 20).u16(1).bytes()...,
	)
	ibag := append(
		new(recordBuilder).u16(0).u16(0).bytes(),
		new(recordBuilder).u16(1).u16(0).bytes()...,
	)
	igen := new(recordBuilder).u16(53 /* genSampleID */).u16(0).bytes()

	shdr := append(
		new(recordBuilder).name("Saw", 20).u32(0).u32(1000).u32(0).u32(999).u32(44100).u8(60).i8(0).u16(0).u16(0).bytes(),
		new(recordBuilder).name("EOS", 20).u32(0).u32(0).u32(0).u32(0).u32(0).u8(0).i8(0).u16(0).u16(0).bytes()...,
	)

	var buf bytes.Buffer
	buf.Write(subChunk("phdr", phdr))
	buf.Write(subChunk("pbag", pbag))
	buf.Write(subChunk("pmod", nil))
	buf.Write(subChunk("pgen", pgen))
	buf.Write(subChunk("inst", inst))
	buf.Write(subChunk("ibag", ibag))
	buf.Write(subChunk("imod", nil))
	buf.Write(subChunk("igen", igen))
	buf.Write(subChunk("shdr", shdr))
	return buf.Bytes()
}

func Test_Read_parses_all_nine_chunks(t *testing.T) {
	content := buildMinimalPdta()
	r := riff.NewChunkReader(riff.NewMemorySource(content), uint32(len(content)))

	h, err := Read(r)
	require.NoError(t, err)

	require.Len(t, h.Phdrs, 2)
	assert.Equal(t, "Square", h.Phdrs[0].Name)
	require.Len(t, h.Pbags, 2)
	require.Len(t, h.Pgens, 1)
	assert.Equal(t, uint16(41), h.Pgens[0].Oper)
	require.Len(t, h.Insts, 2)
	assert.Equal(t, "Lead", h.Insts[0].Name)
	require.Len(t, h.Igens, 1)
	assert.Equal(t, uint16(53), h.Igens[0].Oper)
	require.Len(t, h.Shdrs, 2)
	assert.Equal(t, "Saw", h.Shdrs[0].Name)
	assert.Equal(t, uint32(1000), h.Shdrs[0].End)
	assert.Equal(t, uint32(44100), h.Shdrs[0].SampleRate)
}

func Test_Read_rejects_misaligned_chunk(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(subChunk("phdr", make([]byte, 37))) // not a multiple of 38
	buf.Write(subChunk("pbag", nil))
	buf.Write(subChunk("pmod", nil))
	buf.Write(subChunk("pgen", nil))
	buf.Write(subChunk("inst", nil))
	buf.Write(subChunk("ibag", nil))
	buf.Write(subChunk("imod", nil))
	buf.Write(subChunk("igen", nil))
	buf.Write(subChunk("shdr", nil))

	content := buf.Bytes()
	r := riff.NewChunkReader(riff.NewMemorySource(content), uint32(len(content)))
	_, err := Read(r)
	assert.Error(t, err)
}

func Test_Read_rejects_missing_subchunk(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(subChunk("phdr", nil))
	buf.Write(subChunk("pbag", nil))
	// pmod missing entirely
	buf.Write(subChunk("pgen", nil))
	buf.Write(subChunk("inst", nil))
	buf.Write(subChunk("ibag", nil))
	buf.Write(subChunk("imod", nil))
	buf.Write(subChunk("igen", nil))
	buf.Write(subChunk("shdr", nil))

	content := buf.Bytes()
	r := riff.NewChunkReader(riff.NewMemorySource(content), uint32(len(content)))
	_, err := Read(r)
	assert.Error(t, err)
}

func Test_ReadSamples_converts_int16_to_float(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []int16{0, 32767, -32768, 16384} {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		buf.Write(b[:])
	}
	content := buf.Bytes()
	r := riff.NewChunkReader(riff.NewMemorySource(content), uint32(len(content)))

	samples, err := ReadSamples(r)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.InDelta(t, 0.0, samples[0], 1e-6)
	assert.InDelta(t, 1.0, samples[1], 1e-4)
	assert.InDelta(t, -1.0, samples[2], 1e-4)
}
