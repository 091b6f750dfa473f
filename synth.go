// Package soundfont loads SoundFont 2 instrument banks and renders
// polyphonic PCM audio from them.
package soundfont

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/log"

	"github.com/Alextopher/soundfont/internal/hydra"
	"github.com/Alextopher/soundfont/internal/riff"
)

var logger = log.New(os.Stderr)

func init() {
	logger.SetPrefix("soundfont")
}

// OutputMode selects the channel layout RenderFloat/RenderShort write (§6).
type OutputMode int

const (
	StereoInterleaved OutputMode = iota
	StereoUnweaved
	Mono
)

func (m OutputMode) channels() int {
	if m == Mono {
		return 1
	}
	return 2
}

// mixCtx carries the per-render-call constants every voice needs to mix its
// contribution into the output buffer (§4.8 step 5).
type mixCtx struct {
	mode                   OutputMode
	totalSamples           int
	panLeft, panRight      float64
}

func mixSample(buf []float32, mc mixCtx, idx int, gainL, gainR, val float64) {
	switch mc.mode {
	case StereoInterleaved:
		buf[idx*2] += float32(val * gainL)
		buf[idx*2+1] += float32(val * gainR)
	case StereoUnweaved:
		buf[idx] += float32(val * gainL)
		buf[mc.totalSamples+idx] += float32(val * gainR)
	default: // Mono
		buf[idx] += float32(val * (gainL + gainR) / 2)
	}
}

// Synth is a loaded SoundFont bank plus the voice pool rendering it (§3).
// It is not safe for concurrent use; callers invoking note events from one
// goroutine while Render* runs on another must serialize externally (§5).
type Synth struct {
	presets    []Preset
	samplePool []float32

	voices         []voice
	voicePlayIndex uint64

	sampleRate   float64
	outputMode   OutputMode
	globalGainDB float64
	panLeft      float64
	panRight     float64

	scratch []float32
}

var sfbkForm = [4]byte{'s', 'f', 'b', 'k'}
var infoForm = [4]byte{'I', 'N', 'F', 'O'}
var sdtaForm = [4]byte{'s', 'd', 't', 'a'}
var pdtaForm = [4]byte{'p', 'd', 't', 'a'}
var smplID = [4]byte{'s', 'm', 'p', 'l'}

// Load reads a SoundFont 2 bank from src and compiles its presets. The
// returned Synth defaults to 44100 Hz, stereo interleaved output, 0 dB
// global gain, and unity panning (§6).
func Load(src riff.Source) (*Synth, error) {
	top, err := riff.ReadChunk(src, true)
	if err != nil {
		return nil, newLoadError(ErrNoSfbkHeader, err)
	}
	if top.ID != sfbkForm {
		return nil, newLoadError(ErrNoSfbkHeader, fmt.Errorf("top-level RIFF form is %q, not \"sfbk\"", top.ID[:]))
	}
	body := riff.NewChunkReader(src, top.Size)

	var h *hydra.Hydra
	var samplePool []float32

	for body.Remaining() > 0 {
		ck, err := riff.ReadChunk(body, false)
		if err != nil {
			return nil, newLoadError(ErrNoSfbkHeader, fmt.Errorf("reading top-level chunk: %w", err))
		}
		switch ck.ID {
		case infoForm:
			if err := body.Skip(ck.Size); err != nil {
				return nil, newLoadError(ErrNoSfbkHeader, err)
			}
		case sdtaForm:
			samplePool, err = readSdta(riff.NewChunkReader(body, ck.Size))
			if err != nil {
				return nil, newLoadError(ErrNoSampleData, err)
			}
		case pdtaForm:
			h, err = hydra.Read(riff.NewChunkReader(body, ck.Size))
			if err != nil {
				return nil, newLoadError(ErrIncompleteHydra, err)
			}
		default:
			if err := body.Skip(ck.Size); err != nil {
				return nil, newLoadError(ErrNoSfbkHeader, err)
			}
		}
	}

	if h == nil {
		return nil, newLoadError(ErrIncompleteHydra, errors.New("no pdta LIST found"))
	}
	if samplePool == nil {
		return nil, newLoadError(ErrNoSampleData, errors.New("no sdta/smpl chunk found"))
	}

	presets, err := CompilePresets(h)
	if err != nil {
		return nil, newLoadError(ErrIncompleteHydra, err)
	}

	logger.Debug("loaded soundfont", "presets", len(presets), "samples", len(samplePool))

	return &Synth{
		presets:    presets,
		samplePool: samplePool,
		sampleRate: 44100,
		outputMode: StereoInterleaved,
		panLeft:    1.0,
		panRight:   1.0,
	}, nil
}

func readSdta(sdta *riff.ChunkReader) ([]float32, error) {
	for sdta.Remaining() > 0 {
		ck, err := riff.ReadChunk(sdta, false)
		if err != nil {
			return nil, fmt.Errorf("reading sdta sub-chunk: %w", err)
		}
		if ck.ID == smplID {
			return hydra.ReadSamples(riff.NewChunkReader(sdta, ck.Size))
		}
		if err := sdta.Skip(ck.Size); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("sdta LIST had no smpl chunk")
}

// LoadMemory loads a SoundFont already held in memory.
func LoadMemory(b []byte) (*Synth, error) {
	return Load(riff.NewMemorySource(b))
}

// LoadFile reads path and loads it as a SoundFont. It is the only entry
// point that can fail with ErrFileNotFound.
func LoadFile(path string) (*Synth, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoadError(ErrFileNotFound, err)
	}
	return LoadMemory(b)
}

// Close releases the Synth's owned memory. Go's GC reclaims it once
// unreferenced; nilling the slices here just makes that immediate instead
// of waiting on the caller to drop the last reference.
func (s *Synth) Close() {
	s.presets = nil
	s.samplePool = nil
	s.voices = nil
	s.scratch = nil
}

// PresetCount returns the number of loaded presets.
func (s *Synth) PresetCount() int { return len(s.presets) }

// PresetIndex looks up a preset by (bank, program), returning -1 if absent.
func (s *Synth) PresetIndex(bank, program int) int {
	for i, p := range s.presets {
		if int(p.Bank) == bank && int(p.Program) == program {
			return i
		}
	}
	return -1
}

// PresetName returns the name of the preset at index, or ("", false) if
// index is out of range.
func (s *Synth) PresetName(index int) (string, bool) {
	if index < 0 || index >= len(s.presets) {
		return "", false
	}
	return s.presets[index].Name, true
}

// SetOutput configures the render target. sampleRate below 1 is ignored.
func (s *Synth) SetOutput(mode OutputMode, sampleRate int, globalGainDB float64) {
	s.outputMode = mode
	if sampleRate >= 1 {
		s.sampleRate = float64(sampleRate)
	}
	s.globalGainDB = globalGainDB
}

// SetPanning sets the global per-channel output scale (§6).
func (s *Synth) SetPanning(left, right float64) {
	s.panLeft = left
	s.panRight = right
}

// pitchWheelCenter is the only value the control surface ever supplies a
// voice for pitchWheel: the spec's external interface has no pitch-bend
// control, so every voice is born centered (§4.8, "Pitch-wheel center").
const pitchWheelCenter = 8192

// NoteOn triggers every region of preset presetIndex matching (key,
// velocity), spawning one voice per match sharing a single play index
// (§4.4). velocity <= 0 is treated as a note-off. Out-of-range indices are
// silently ignored (§7).
func (s *Synth) NoteOn(presetIndex, key int, velocity float64) {
	if velocity <= 0 {
		s.NoteOff(presetIndex, key)
		return
	}
	if presetIndex < 0 || presetIndex >= len(s.presets) {
		return
	}
	preset := &s.presets[presetIndex]
	midiVel := int(velocity * 127)

	s.voicePlayIndex++
	playIndex := s.voicePlayIndex

	for i := range preset.Regions {
		region := &preset.Regions[i]
		if key < region.LoKey || key > region.HiKey {
			continue
		}
		if midiVel < region.LoVel || midiVel > region.HiVel {
			continue
		}

		if region.Group != 0 {
			for j := range s.voices {
				other := &s.voices[j]
				if other.free() || other.presetIndex != presetIndex || other.region.Group != region.Group {
					continue
				}
				other.endQuick(s.sampleRate)
			}
		}

		v := s.allocVoice()
		v.setup(region, presetIndex, key, pitchWheelCenter, velocity, playIndex, len(s.samplePool), s.globalGainDB, s.sampleRate)
	}
}

// NoteOnBank is NoteOn addressed by (bank, program) instead of a preset
// index; a miss is a silent no-op (§4.4 supplement).
func (s *Synth) NoteOnBank(bank, program, key int, velocity float64) {
	idx := s.PresetIndex(bank, program)
	if idx < 0 {
		return
	}
	s.NoteOn(idx, key, velocity)
}

// NoteOff releases the earliest triggered still-sounding group of voices
// for (presetIndex, key): it finds the smallest play index among
// matching, not-yet-released voices, then releases every voice sharing that
// play index regardless of which note or preset spawned it, since a shared
// play index is exactly the definition of "born together" (§4.4).
func (s *Synth) NoteOff(presetIndex, key int) {
	var target uint64
	found := false
	for i := range s.voices {
		v := &s.voices[i]
		if v.free() || v.presetIndex != presetIndex || v.key != key {
			continue
		}
		if v.ampenv.segment >= SegmentRelease {
			continue
		}
		if !found || v.playIndex < target {
			target = v.playIndex
			found = true
		}
	}
	if !found {
		return
	}
	for i := range s.voices {
		v := &s.voices[i]
		if v.free() || v.playIndex != target {
			continue
		}
		v.end(s.sampleRate)
	}
}

// NoteOffBank is NoteOff addressed by (bank, program).
func (s *Synth) NoteOffBank(bank, program, key int) {
	idx := s.PresetIndex(bank, program)
	if idx < 0 {
		return
	}
	s.NoteOff(idx, key)
}

// NoteOffAll releases every currently sounding voice.
func (s *Synth) NoteOffAll() {
	for i := range s.voices {
		v := &s.voices[i]
		if v.free() {
			continue
		}
		v.end(s.sampleRate)
	}
}

// allocVoice returns a free voice slot, growing the pool by 4 if none is
// available (§4.4). The only allocation on the note-on path.
func (s *Synth) allocVoice() *voice {
	for i := range s.voices {
		if s.voices[i].free() {
			return &s.voices[i]
		}
	}
	grown := make([]voice, len(s.voices)+4)
	copy(grown, s.voices)
	for i := len(s.voices); i < len(grown); i++ {
		grown[i].presetIndex = -1
	}
	s.voices = grown
	return &s.voices[len(s.voices)-4]
}

// RenderFloat renders samples sample-frames into buf (length
// samples*channels), subdividing into effect blocks of at most
// effectBlockSamples so filter/pitch/gain track modulation at that
// granularity (§4.8, §4.9). When mix is false buf is zeroed first.
func (s *Synth) RenderFloat(buf []float32, samples int, mix bool) {
	if !mix {
		for i := range buf {
			buf[i] = 0
		}
	}

	mc := mixCtx{mode: s.outputMode, totalSamples: samples, panLeft: s.panLeft, panRight: s.panRight}

	offset, remaining := 0, samples
	for remaining > 0 {
		block := effectBlockSamples
		if block > remaining {
			block = remaining
		}
		for i := range s.voices {
			v := &s.voices[i]
			if v.free() {
				continue
			}
			v.renderBlock(s.samplePool, s.sampleRate, mc, buf, offset, block)
		}
		offset += block
		remaining -= block
	}
}

// RenderShort is RenderFloat quantized to int16, with the clipping bounds
// and mix-with-saturation semantics of §4.9. The scratch buffer it renders
// through is retained and grown on demand, never shrunk.
func (s *Synth) RenderShort(buf []int16, samples int, mix bool) {
	need := samples * s.outputMode.channels()
	if len(s.scratch) < need {
		s.scratch = make([]float32, need)
	}
	scratch := s.scratch[:need]

	s.RenderFloat(scratch, samples, false)

	for i := 0; i < need; i++ {
		x := float64(scratch[i])
		var q int16
		switch {
		case x < -1.00004566:
			q = -32768
		case x > 1.00001514:
			q = 32767
		default:
			q = int16(math.Max(-32768, math.Min(32767, math.Round(x*32767.5))))
		}
		if !mix {
			buf[i] = q
			continue
		}
		sum := int32(buf[i]) + int32(q)
		switch {
		case sum > 32767:
			buf[i] = 32767
		case sum < -32768:
			buf[i] = -32768
		default:
			buf[i] = int16(sum)
		}
	}
}
