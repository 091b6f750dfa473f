// Package hydra parses the nine parallel "pdta" arrays of a SoundFont 2 bank
// (collectively nicknamed the Hydra) and the "sdta/smpl" PCM stream. Hydra is
// a transient, loader-only representation: callers lower it into an owned
// preset/region tree and discard it once compilation finishes.
package hydra

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Alextopher/soundfont/internal/riff"
)

// PresetHeader is one phdr record (38 bytes on disk).
type PresetHeader struct {
	Name         string
	Preset       uint16
	Bank         uint16
	PresetBagNdx uint16
	Library      uint32
	Genre        uint32
	Morphology   uint32
}

// Bag is a pbag or ibag record (4 bytes on disk): an index pair into the
// generator and modulator arrays for one zone.
type Bag struct {
	GenNdx uint16
	ModNdx uint16
}

// Modulator is a pmod or imod record (10 bytes on disk). Parsed to preserve
// file offsets; never applied (see spec §4.3, "Modulator records").
type Modulator struct {
	SrcOper     uint16
	DestOper    uint16
	Amount      int16
	AmtSrcOper  uint16
	TransOper   uint16
}

// GenAmount is the generic generator amount union: either a signed amount, an
// unsigned word amount, or a lo/hi range pair, depending on the generator.
type GenAmount struct {
	ShortAmount int16
	WordAmount  uint16
	Lo, Hi      uint8
}

// Generator is a pgen or igen record (4 bytes on disk).
type Generator struct {
	Oper   uint16
	Amount GenAmount
}

// Instrument is an inst record (22 bytes on disk).
type Instrument struct {
	Name       string
	InstBagNdx uint16
}

// SampleHeader is an shdr record (46 bytes on disk).
type SampleHeader struct {
	Name            string
	Start           uint32
	End             uint32
	StartLoop       uint32
	EndLoop         uint32
	SampleRate      uint32
	OriginalPitch   uint8
	PitchCorrection int8
	SampleLink      uint16
	SampleType      uint16
}

// Hydra holds the nine flat pdta arrays exactly as laid out on disk: a
// parallel-array graph where phdr->pbag->pgen and inst->ibag->igen, with a
// terminal sentinel record in each outer array supplying the end-index of
// the previous record.
type Hydra struct {
	Phdrs []PresetHeader
	Pbags []Bag
	Pmods []Modulator
	Pgens []Generator
	Insts []Instrument
	Ibags []Bag
	Imods []Modulator
	Igens []Generator
	Shdrs []SampleHeader
}

const (
	phdrSize = 38
	pbagSize = 4
	pmodSize = 10
	pgenSize = 4
	instSize = 22
	ibagSize = 4
	imodSize = 10
	igenSize = 4
	shdrSize = 46
)

// fixedString trims trailing NUL bytes from a fixed-width ASCII field.
func fixedString(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// Read walks every sub-chunk of a pdta LIST, populating a Hydra. Unknown
// chunks are skipped. Each of the nine expected sub-chunks must have a size
// that is an exact multiple of its record size, or the chunk is rejected.
func Read(pdta *riff.ChunkReader) (*Hydra, error) {
	h := &Hydra{}
	seen := map[[4]byte]bool{}

	for pdta.Remaining() > 0 {
		ck, err := riff.ReadChunk(pdta, false)
		if err != nil {
			return nil, fmt.Errorf("hydra: reading pdta sub-chunk: %w", err)
		}
		body := riff.NewChunkReader(pdta, ck.Size)

		switch ck.ID {
		case [4]byte{'p', 'h', 'd', 'r'}:
			if err := checkSize(ck, phdrSize); err != nil {
				return nil, err
			}
			h.Phdrs, err = readPhdrs(body, int(ck.Size)/phdrSize)
		case [4]byte{'p', 'b', 'a', 'g'}:
			if err := checkSize(ck, pbagSize); err != nil {
				return nil, err
			}
			h.Pbags, err = readBags(body, int(ck.Size)/pbagSize)
		case [4]byte{'p', 'm', 'o', 'd'}:
			if err := checkSize(ck, pmodSize); err != nil {
				return nil, err
			}
			h.Pmods, err = readMods(body, int(ck.Size)/pmodSize)
		case [4]byte{'p', 'g', 'e', 'n'}:
			if err := checkSize(ck, pgenSize); err != nil {
				return nil, err
			}
			h.Pgens, err = readGens(body, int(ck.Size)/pgenSize)
		case [4]byte{'i', 'n', 's', 't'}:
			if err := checkSize(ck, instSize); err != nil {
				return nil, err
			}
			h.Insts, err = readInsts(body, int(ck.Size)/instSize)
		case [4]byte{'i', 'b', 'a', 'g'}:
			if err := checkSize(ck, ibagSize); err != nil {
				return nil, err
			}
			h.Ibags, err = readBags(body, int(ck.Size)/ibagSize)
		case [4]byte{'i', 'm', 'o', 'd'}:
			if err := checkSize(ck, imodSize); err != nil {
				return nil, err
			}
			h.Imods, err = readMods(body, int(ck.Size)/imodSize)
		case [4]byte{'i', 'g', 'e', 'n'}:
			if err := checkSize(ck, igenSize); err != nil {
				return nil, err
			}
			h.Igens, err = readGens(body, int(ck.Size)/igenSize)
		case [4]byte{'s', 'h', 'd', 'r'}:
			if err := checkSize(ck, shdrSize); err != nil {
				return nil, err
			}
			h.Shdrs, err = readShdrs(body, int(ck.Size)/shdrSize)
		default:
			err = body.Skip(ck.Size)
		}
		if err != nil {
			return nil, fmt.Errorf("hydra: %q chunk: %w", ck.ID[:], err)
		}
		seen[ck.ID] = true
	}

	for _, id := range [][4]byte{
		{'p', 'h', 'd', 'r'}, {'p', 'b', 'a', 'g'}, {'p', 'm', 'o', 'd'}, {'p', 'g', 'e', 'n'},
		{'i', 'n', 's', 't'}, {'i', 'b', 'a', 'g'}, {'i', 'm', 'o', 'd'}, {'i', 'g', 'e', 'n'}, {'s', 'h', 'd', 'r'},
	} {
		if !seen[id] {
			return nil, fmt.Errorf("hydra: missing %q sub-chunk", id[:])
		}
	}
	return h, nil
}

func checkSize(ck riff.Chunk, recordSize int) error {
	if int(ck.Size)%recordSize != 0 {
		return fmt.Errorf("invalid %q size %d, not a multiple of %d", ck.ID[:], ck.Size, recordSize)
	}
	return nil
}

func readPhdrs(r *riff.ChunkReader, n int) ([]PresetHeader, error) {
	out := make([]PresetHeader, n)
	for i := range out {
		var name [20]byte
		var preset, bank, bagNdx uint16
		var library, genre, morphology uint32
		if err := readFields(r, &name, &preset, &bank, &bagNdx, &library, &genre, &morphology); err != nil {
			return nil, err
		}
		out[i] = PresetHeader{
			Name: fixedString(name[:]), Preset: preset, Bank: bank, PresetBagNdx: bagNdx,
			Library: library, Genre: genre, Morphology: morphology,
		}
	}
	return out, nil
}

func readBags(r *riff.ChunkReader, n int) ([]Bag, error) {
	out := make([]Bag, n)
	for i := range out {
		var gen, mod uint16
		if err := readFields(r, &gen, &mod); err != nil {
			return nil, err
		}
		out[i] = Bag{GenNdx: gen, ModNdx: mod}
	}
	return out, nil
}

func readMods(r *riff.ChunkReader, n int) ([]Modulator, error) {
	out := make([]Modulator, n)
	for i := range out {
		var src, dest uint16
		var amount int16
		var amtSrc, trans uint16
		if err := readFields(r, &src, &dest, &amount, &amtSrc, &trans); err != nil {
			return nil, err
		}
		out[i] = Modulator{SrcOper: src, DestOper: dest, Amount: amount, AmtSrcOper: amtSrc, TransOper: trans}
	}
	return out, nil
}

func readGens(r *riff.ChunkReader, n int) ([]Generator, error) {
	out := make([]Generator, n)
	for i := range out {
		var oper uint16
		var raw [2]byte
		if err := readFields(r, &oper, &raw); err != nil {
			return nil, err
		}
		out[i] = Generator{
			Oper: oper,
			Amount: GenAmount{
				ShortAmount: int16(binary.LittleEndian.Uint16(raw[:])),
				WordAmount:  binary.LittleEndian.Uint16(raw[:]),
				Lo:          raw[0],
				Hi:          raw[1],
			},
		}
	}
	return out, nil
}

func readInsts(r *riff.ChunkReader, n int) ([]Instrument, error) {
	out := make([]Instrument, n)
	for i := range out {
		var name [20]byte
		var bagNdx uint16
		if err := readFields(r, &name, &bagNdx); err != nil {
			return nil, err
		}
		out[i] = Instrument{Name: fixedString(name[:]), InstBagNdx: bagNdx}
	}
	return out, nil
}

func readShdrs(r *riff.ChunkReader, n int) ([]SampleHeader, error) {
	out := make([]SampleHeader, n)
	for i := range out {
		var name [20]byte
		var start, end, startLoop, endLoop, sampleRate uint32
		var origPitch uint8
		var pitchCorrection int8
		var link, sampleType uint16
		if err := readFields(r, &name, &start, &end, &startLoop, &endLoop, &sampleRate, &origPitch, &pitchCorrection, &link, &sampleType); err != nil {
			return nil, err
		}
		out[i] = SampleHeader{
			Name: fixedString(name[:]), Start: start, End: end, StartLoop: startLoop, EndLoop: endLoop,
			SampleRate: sampleRate, OriginalPitch: origPitch, PitchCorrection: pitchCorrection,
			SampleLink: link, SampleType: sampleType,
		}
	}
	return out, nil
}

// readFields reads each field in order, little-endian, from r.
func readFields(r *riff.ChunkReader, fields ...any) error {
	for _, f := range fields {
		size := binary.Size(f)
		buf := make([]byte, size)
		if _, err := r.Read(buf); err != nil {
			return err
		}
		if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}
