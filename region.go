package soundfont

import (
	"math"
	"sort"

	"github.com/Alextopher/soundfont/internal/hydra"
)

// LoopMode selects how a region's sample window wraps during playback.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopContinuous
	LoopSustain
)

// Envelope holds one ampenv/modenv parameter set. Delay/attack/release are
// always seconds after compilation; hold/decay stay in timecents when the
// matching KeynumTo* tracking coefficient is non-zero, to be resolved per
// voice at note-on (§4.5).
type Envelope struct {
	Delay, Attack, Hold, Decay, Sustain, Release float64
	KeynumToHold, KeynumToDecay                  float64
}

// Region is the fully-resolved playable unit produced by preset compilation:
// one key/velocity rectangle bound to one sample with a concrete set of
// generator values (§3).
type Region struct {
	LoKey, HiKey, LoVel, HiVel int

	Offset, End, LoopStart, LoopEnd uint32
	LoopMode                       LoopMode
	SampleRate                     uint32

	Transpose      int
	Tune           int
	PitchKeycenter int
	PitchKeytrack  int

	Volume float64
	Pan    float64

	AmpEnv, ModEnv Envelope

	InitialFilterFc int
	InitialFilterQ  int

	ModEnvToPitch    int
	ModEnvToFilterFc int
	ModLfoToPitch    int
	ModLfoToFilterFc int
	ModLfoToVolume   int
	VibLfoToPitch    int

	DelayModLFO float64
	FreqModLFO  int
	DelayVibLFO float64
	FreqVibLFO  int

	Group uint16
}

// Preset is an addressable (bank, program) instrument: a name plus the flat
// list of regions produced by expanding its preset/instrument zone hierarchy.
type Preset struct {
	Name    string
	Bank    uint16
	Program uint16
	Regions []Region
}

func defaultRegion(forRelative bool) Region {
	r := Region{HiKey: 127, HiVel: 127, PitchKeycenter: 60}
	if forRelative {
		return r
	}
	r.PitchKeytrack = 100
	r.PitchKeycenter = -1
	r.AmpEnv = Envelope{Delay: -12000, Attack: -12000, Hold: -12000, Decay: -12000, Release: -12000}
	r.ModEnv = Envelope{Delay: -12000, Attack: -12000, Hold: -12000, Decay: -12000, Release: -12000}
	r.InitialFilterFc = 13500
	r.DelayModLFO = -12000
	r.DelayVibLFO = -12000
	return r
}

// applyGenerator applies one SF2 generator record to region (§4.3). The
// address offsets, InitialAttenuation, CoarseTune and FineTune add to the
// field; every other handled generator, ranges included, overwrites it.
// Preset-level values are added to the instrument-level ones later, in
// closeOutRegion.
func applyGenerator(region *Region, oper uint16, amount hydra.GenAmount) {
	short := int(amount.ShortAmount)
	switch int(oper) {
	case genStartAddrsOffset:
		region.Offset = addOffset(region.Offset, short)
	case genEndAddrsOffset:
		region.End = addOffset(region.End, short)
	case genStartloopAddrsOffset:
		region.LoopStart = addOffset(region.LoopStart, short)
	case genEndloopAddrsOffset:
		region.LoopEnd = addOffset(region.LoopEnd, short)
	case genStartAddrsCoarseOffset:
		region.Offset = addOffset(region.Offset, short*32768)
	case genModLfoToPitch:
		region.ModLfoToPitch = short
	case genVibLfoToPitch:
		region.VibLfoToPitch = short
	case genModEnvToPitch:
		region.ModEnvToPitch = short
	case genInitialFilterFc:
		region.InitialFilterFc = short
	case genInitialFilterQ:
		region.InitialFilterQ = short
	case genModLfoToFilterFc:
		region.ModLfoToFilterFc = short
	case genModEnvToFilterFc:
		region.ModEnvToFilterFc = short
	case genEndAddrsCoarseOffset:
		region.End = addOffset(region.End, short*32768)
	case genModLfoToVolume:
		region.ModLfoToVolume = short
	case genPan:
		region.Pan = float64(short) * (2.0 / 10.0)
	case genDelayModLFO:
		region.DelayModLFO = float64(short)
	case genFreqModLFO:
		region.FreqModLFO = short
	case genDelayVibLFO:
		region.DelayVibLFO = float64(short)
	case genFreqVibLFO:
		region.FreqVibLFO = short
	case genDelayModEnv:
		region.ModEnv.Delay = float64(short)
	case genAttackModEnv:
		region.ModEnv.Attack = float64(short)
	case genHoldModEnv:
		region.ModEnv.Hold = float64(short)
	case genDecayModEnv:
		region.ModEnv.Decay = float64(short)
	case genSustainModEnv:
		region.ModEnv.Sustain = float64(short)
	case genReleaseModEnv:
		region.ModEnv.Release = float64(short)
	case genKeynumToModEnvHold:
		region.ModEnv.KeynumToHold = float64(short)
	case genKeynumToModEnvDecay:
		region.ModEnv.KeynumToDecay = float64(short)
	case genDelayVolEnv:
		region.AmpEnv.Delay = float64(short)
	case genAttackVolEnv:
		region.AmpEnv.Attack = float64(short)
	case genHoldVolEnv:
		region.AmpEnv.Hold = float64(short)
	case genDecayVolEnv:
		region.AmpEnv.Decay = float64(short)
	case genSustainVolEnv:
		region.AmpEnv.Sustain = float64(short)
	case genReleaseVolEnv:
		region.AmpEnv.Release = float64(short)
	case genKeynumToVolEnvHold:
		region.AmpEnv.KeynumToHold = float64(short)
	case genKeynumToVolEnvDecay:
		region.AmpEnv.KeynumToDecay = float64(short)
	case genKeyRange:
		region.LoKey, region.HiKey = int(amount.Lo), int(amount.Hi)
	case genVelRange:
		region.LoVel, region.HiVel = int(amount.Lo), int(amount.Hi)
	case genStartloopAddrsCoarseOffset:
		region.LoopStart = addOffset(region.LoopStart, short*32768)
	case genInitialAttenuation:
		region.Volume += -float64(short) / 100.0
	case genEndloopAddrsCoarseOffset:
		region.LoopEnd = addOffset(region.LoopEnd, short*32768)
	case genCoarseTune:
		region.Transpose += short
	case genFineTune:
		region.Tune += short
	case genSampleModes:
		switch amount.WordAmount & 3 {
		case 3:
			region.LoopMode = LoopSustain
		case 1:
			region.LoopMode = LoopContinuous
		default:
			region.LoopMode = LoopNone
		}
	case genScaleTuning:
		region.PitchKeytrack = short
	case genExclusiveClass:
		region.Group = amount.WordAmount
	case genOverridingRootKey:
		region.PitchKeycenter = short
	}
}

// addOffset adds a signed delta to an unsigned sample-position field, the
// way the reference parser's unsigned arithmetic does: deltas here always
// keep the running total non-negative in well-formed fonts.
func addOffset(base uint32, delta int) uint32 {
	return uint32(int64(base) + int64(delta))
}

func timecents2Secs(tc float64) float64 {
	return math.Pow(2, tc/1200.0)
}

func cents2Hertz(cents float64) float64 {
	return 8.176 * math.Pow(2, cents/1200.0)
}

func decibelsToGain(db float64) float64 {
	if db > -100 {
		return math.Pow(10, db*0.05)
	}
	return 0
}

// envToSecs converts delay/attack/release from timecents to seconds, pinning
// very short segments to zero. Hold/decay are only converted here when their
// key-tracking coefficient is zero; otherwise they stay in timecents for
// per-voice resolution at note-on (§4.5). sustainIsGain selects the amp
// envelope's centi-dB-to-percent-gain conversion vs. the mod envelope's
// direct percent.
func envToSecs(e *Envelope, sustainIsGain bool) {
	pin := func(tc float64) float64 {
		if tc < -11950 {
			return 0
		}
		return timecents2Secs(tc)
	}
	e.Delay = pin(e.Delay)
	e.Attack = pin(e.Attack)
	e.Release = pin(e.Release)
	if e.KeynumToHold == 0 {
		e.Hold = pin(e.Hold)
	}
	if e.KeynumToDecay == 0 {
		e.Decay = pin(e.Decay)
	}

	switch {
	case e.Sustain < 0:
		e.Sustain = 0
	case sustainIsGain:
		e.Sustain = 100 * decibelsToGain(-e.Sustain/10)
	default:
		e.Sustain = e.Sustain / 10
	}
}

// CompilePresets expands the preset -> preset-zone -> instrument ->
// instrument-zone -> sample hierarchy of h into a flat, ordered list of
// Presets with fully-resolved Regions (§4.3). Presets are ordered by
// (bank, program) then original file order, a stable sort over the phdr
// array (excluding its terminal sentinel record).
func CompilePresets(h *hydra.Hydra) ([]Preset, error) {
	if len(h.Phdrs) < 2 {
		return nil, nil
	}
	headers := h.Phdrs[:len(h.Phdrs)-1]
	order := make([]int, len(headers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ha, hb := headers[order[a]], headers[order[b]]
		if ha.Bank != hb.Bank {
			return ha.Bank < hb.Bank
		}
		return ha.Preset < hb.Preset
	})

	presets := make([]Preset, len(order))
	for k, origIdx := range order {
		phdr := h.Phdrs[origIdx]
		next := h.Phdrs[origIdx+1]
		preset := Preset{Name: phdr.Name, Bank: phdr.Bank, Program: phdr.Preset}

		for pbagIdx := phdr.PresetBagNdx; pbagIdx < next.PresetBagNdx; pbagIdx++ {
			pbag := h.Pbags[pbagIdx]
			nextPbag := h.Pbags[pbagIdx+1]
			presetRegion := defaultRegion(true)

			for pgenIdx := pbag.GenNdx; pgenIdx < nextPbag.GenNdx; pgenIdx++ {
				pgen := h.Pgens[pgenIdx]
				if int(pgen.Oper) != genInstrument {
					applyGenerator(&presetRegion, pgen.Oper, pgen.Amount)
					continue
				}

				whichInst := pgen.Amount.WordAmount
				if int(whichInst) >= len(h.Insts)-1 {
					continue
				}
				instRegion := defaultRegion(false)
				// Instrument zones start from the preset zone's ranges
				// instead of 0-127 — a deliberately preserved SF2 quirk
				// (§4.3, §9). A zone's own KeyRange/VelRange replaces them.
				instRegion.LoKey, instRegion.HiKey = presetRegion.LoKey, presetRegion.HiKey
				instRegion.LoVel, instRegion.HiVel = presetRegion.LoVel, presetRegion.HiVel

				inst := h.Insts[whichInst]
				nextInst := h.Insts[whichInst+1]
				for ibagIdx := inst.InstBagNdx; ibagIdx < nextInst.InstBagNdx; ibagIdx++ {
					ibag := h.Ibags[ibagIdx]
					nextIbag := h.Ibags[ibagIdx+1]
					zoneRegion := instRegion
					hadSampleID := false

					for igenIdx := ibag.GenNdx; igenIdx < nextIbag.GenNdx; igenIdx++ {
						igen := h.Igens[igenIdx]
						if int(igen.Oper) != genSampleID {
							applyGenerator(&zoneRegion, igen.Oper, igen.Amount)
							continue
						}
						sampleIdx := igen.Amount.WordAmount
						if int(sampleIdx) >= len(h.Shdrs) {
							continue
						}
						shdr := h.Shdrs[sampleIdx]
						region := closeOutRegion(zoneRegion, presetRegion, shdr)
						preset.Regions = append(preset.Regions, region)
						hadSampleID = true
					}

					if ibagIdx == inst.InstBagNdx && !hadSampleID {
						instRegion = zoneRegion
					}
				}
			}
		}
		presets[k] = preset
	}
	return presets, nil
}

// closeOutRegion finalizes an instrument-level zone into a playable region:
// sums the preset-region's generators in, converts envelope/LFO times,
// clamps, and folds in the sample header (§4.3).
func closeOutRegion(zone, presetRegion Region, shdr hydra.SampleHeader) Region {
	zone.Offset += presetRegion.Offset
	zone.End += presetRegion.End
	zone.LoopStart += presetRegion.LoopStart
	zone.LoopEnd += presetRegion.LoopEnd
	zone.Transpose += presetRegion.Transpose
	zone.Tune += presetRegion.Tune
	zone.PitchKeytrack += presetRegion.PitchKeytrack
	zone.Volume += presetRegion.Volume
	zone.Pan += presetRegion.Pan
	zone.AmpEnv.Delay += presetRegion.AmpEnv.Delay
	zone.AmpEnv.Attack += presetRegion.AmpEnv.Attack
	zone.AmpEnv.Hold += presetRegion.AmpEnv.Hold
	zone.AmpEnv.Decay += presetRegion.AmpEnv.Decay
	zone.AmpEnv.Sustain += presetRegion.AmpEnv.Sustain
	zone.AmpEnv.Release += presetRegion.AmpEnv.Release
	zone.ModEnv.Delay += presetRegion.ModEnv.Delay
	zone.ModEnv.Attack += presetRegion.ModEnv.Attack
	zone.ModEnv.Hold += presetRegion.ModEnv.Hold
	zone.ModEnv.Decay += presetRegion.ModEnv.Decay
	zone.ModEnv.Sustain += presetRegion.ModEnv.Sustain
	zone.ModEnv.Release += presetRegion.ModEnv.Release
	zone.InitialFilterQ += presetRegion.InitialFilterQ
	zone.InitialFilterFc += presetRegion.InitialFilterFc
	zone.ModEnvToPitch += presetRegion.ModEnvToPitch
	zone.ModEnvToFilterFc += presetRegion.ModEnvToFilterFc
	zone.DelayModLFO += presetRegion.DelayModLFO
	zone.FreqModLFO += presetRegion.FreqModLFO
	zone.ModLfoToPitch += presetRegion.ModLfoToPitch
	zone.ModLfoToFilterFc += presetRegion.ModLfoToFilterFc
	zone.ModLfoToVolume += presetRegion.ModLfoToVolume
	zone.DelayVibLFO += presetRegion.DelayVibLFO
	zone.FreqVibLFO += presetRegion.FreqVibLFO
	zone.VibLfoToPitch += presetRegion.VibLfoToPitch

	envToSecs(&zone.AmpEnv, true)
	envToSecs(&zone.ModEnv, false)

	pinLFO := func(tc float64) float64 {
		if tc < -11950 {
			return 0
		}
		return timecents2Secs(tc)
	}
	zone.DelayModLFO = pinLFO(zone.DelayModLFO)
	zone.DelayVibLFO = pinLFO(zone.DelayVibLFO)

	if zone.Pan < -100 {
		zone.Pan = -100
	} else if zone.Pan > 100 {
		zone.Pan = 100
	}
	if zone.InitialFilterQ < 1500 || zone.InitialFilterQ > 13500 {
		zone.InitialFilterQ = 0
	}

	zone.Offset += shdr.Start
	zone.End += shdr.End
	zone.LoopStart += shdr.StartLoop
	zone.LoopEnd += shdr.EndLoop
	if shdr.EndLoop > 0 {
		zone.LoopEnd--
	}
	if zone.PitchKeycenter == -1 {
		zone.PitchKeycenter = int(shdr.OriginalPitch)
	}
	zone.Tune += int(shdr.PitchCorrection)

	if zone.Volume > 6 {
		zone.Volume = 6
	}

	zone.SampleRate = shdr.SampleRate
	return zone
}
