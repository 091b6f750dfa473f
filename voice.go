package soundfont

import "math"

// effectBlockSamples is the sub-granularity at which a voice's filter
// cutoff, pitch ratio, and gain are recomputed (§4.8). Envelopes and LFOs
// advance once per block rather than once per sample.
const effectBlockSamples = 64

// voice is one playing instance of a region. preset_index == -1 marks a free
// pool slot (§3).
type voice struct {
	presetIndex int
	key         int
	pitchWheel  int
	region      *Region
	playIndex   uint64

	sourcePos           float64
	sampleEnd           uint32
	loopStart, loopEnd  uint32

	pitchInputTimecents float64
	pitchOutputFactor   float64

	noteGainDB          float64
	panLeft, panRight   float64

	ampenv, modenv voiceEnvelope
	modlfo, viblfo voiceLFO
	lowpass        lowpass
}

// free reports whether the slot is unoccupied.
func (v *voice) free() bool { return v.presetIndex == -1 }

// setup arms a free slot as a newly-triggered voice for region, computing
// the note-on pitch/gain/pan constants of §4.8 and resetting all DSP state.
func (v *voice) setup(region *Region, presetIndex, key, pitchWheel int, velocity float64, playIndex uint64, poolLen int, globalGainDB, sampleRate float64) {
	v.presetIndex = presetIndex
	v.key = key
	v.pitchWheel = pitchWheel
	v.region = region
	v.playIndex = playIndex

	v.sourcePos = float64(region.Offset)
	v.sampleEnd = uint32(poolLen)
	if region.End > 0 && region.End < v.sampleEnd {
		// The off-by-one is applied here, at note-on, not baked into the
		// compiled region: a region that never loops still gets one extra
		// sample of travel before voice-kill.
		v.sampleEnd = region.End + 1
	}
	if region.LoopMode != LoopNone && region.LoopStart < region.LoopEnd {
		v.loopStart = region.LoopStart
		v.loopEnd = region.LoopEnd
	} else {
		v.loopStart = 0
		v.loopEnd = 0
	}

	note := float64(key) + float64(region.Transpose) + float64(region.Tune)/100.0
	keycenter := float64(region.PitchKeycenter)
	adjustedPitch := keycenter + (note-keycenter)*float64(region.PitchKeytrack)/100.0
	if pitchWheel != 8192 {
		adjustedPitch += 4.0*float64(pitchWheel)/16383.0 - 2.0
	}
	v.pitchInputTimecents = adjustedPitch * 100.0
	v.pitchOutputFactor = float64(region.SampleRate) / (timecents2Secs(keycenter*100.0) * sampleRate)

	if velocity <= 0 {
		velocity = 1
	}
	v.noteGainDB = globalGainDB + region.Volume - 20*math.Log10(1/velocity)

	a := (region.Pan + 100) / 200
	v.panLeft = math.Sqrt(1 - a)
	v.panRight = math.Sqrt(a)

	v.ampenv = voiceEnvelope{}
	v.modenv = voiceEnvelope{}
	v.ampenv.setup(region.AmpEnv, key, true, sampleRate)
	v.modenv.setup(region.ModEnv, key, false, sampleRate)

	v.modlfo = voiceLFO{}
	v.viblfo = voiceLFO{}
	v.modlfo.setup(region.DelayModLFO, region.FreqModLFO, sampleRate)
	v.viblfo.setup(region.DelayVibLFO, region.FreqVibLFO, sampleRate)

	qDB := float64(region.InitialFilterQ) / 10.0
	v.lowpass = lowpass{qInv: math.Pow(10, -qDB/20.0)}
}

// end is an ordinary note-off: both envelopes are forced into Release from
// whatever segment they're currently in, and a sustain-looping region stops
// extending its loop (it plays out the tail instead of looping forever).
func (v *voice) end(sampleRate float64) {
	if v.region.LoopMode == LoopSustain {
		v.loopEnd = v.loopStart
	}
	v.ampenv.nextSegment(SegmentSustain, sampleRate)
	v.modenv.nextSegment(SegmentSustain, sampleRate)
}

// endQuick forces an immediate (but click-free, via fastReleaseTime) release,
// used for exclusive-class group stealing (§4.4).
func (v *voice) endQuick(sampleRate float64) {
	v.ampenv.parameters.Release = 0
	v.modenv.parameters.Release = 0
	v.ampenv.nextSegment(SegmentSustain, sampleRate)
	v.modenv.nextSegment(SegmentSustain, sampleRate)
}

// kill marks the slot free, matching preset_index == -1 (§3).
func (v *voice) kill() { v.presetIndex = -1 }

// renderBlock advances the voice by block samples (at most effectBlockSamples,
// clamped by the caller), mixing its contribution into buf starting at
// sample offset blockOffset. Returns false if the voice died during or at
// the end of the block (§4.8 steps 1-6).
func (v *voice) renderBlock(pool []float32, sampleRate float64, mc mixCtx, buf []float32, blockOffset, block int) bool {
	region := v.region

	fc := float64(region.InitialFilterFc) + v.modlfo.level*float64(region.ModLfoToFilterFc) + v.modenv.level*float64(region.ModEnvToFilterFc)
	v.lowpass.active = fc <= 13500
	if v.lowpass.active {
		v.lowpass.setup(cents2Hertz(fc) / sampleRate)
	}

	pitch := v.pitchInputTimecents +
		v.modlfo.level*float64(region.ModLfoToPitch) +
		v.viblfo.level*float64(region.VibLfoToPitch) +
		v.modenv.level*float64(region.ModEnvToPitch)
	pitchRatio := math.Pow(2, pitch/1200.0) * v.pitchOutputFactor

	gain := math.Pow(10, (v.noteGainDB+v.modlfo.level*float64(region.ModLfoToVolume)*0.1)/20.0) * v.ampenv.level

	v.ampenv.process(block, sampleRate)
	v.modenv.process(block, sampleRate)
	v.modlfo.process(block)
	v.viblfo.process(block)

	looping := v.loopStart < v.loopEnd
	loopSpan := float64(v.loopEnd-v.loopStart) + 1

	l := gain * v.panLeft * mc.panLeft
	r := gain * v.panRight * mc.panRight

	for i := 0; i < block; i++ {
		pos := int(v.sourcePos)
		if pos < 0 || pos >= len(pool) {
			v.kill()
			return false
		}
		next := pos + 1
		if looping && uint32(pos) >= v.loopEnd {
			next = int(v.loopStart)
		}
		if next >= len(pool) {
			next = pos
		}
		alpha := v.sourcePos - float64(pos)
		val := float64(pool[pos])*(1-alpha) + float64(pool[next])*alpha
		if v.lowpass.active {
			val = v.lowpass.process(val)
		}
		mixSample(buf, mc, blockOffset+i, l, r, val)

		v.sourcePos += pitchRatio
		if looping && v.sourcePos >= float64(v.loopEnd)+1 {
			v.sourcePos -= loopSpan
		}
		if v.sourcePos >= float64(v.sampleEnd) || v.ampenv.segment == SegmentDone {
			v.kill()
			return false
		}
	}

	if v.ampenv.segment == SegmentDone {
		v.kill()
		return false
	}
	return true
}
