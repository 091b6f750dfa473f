package soundfont

import "math"

// Segment is a position in the two-envelope state machine (§4.5).
type Segment int

const (
	SegmentNone Segment = iota
	SegmentDelay
	SegmentAttack
	SegmentHold
	SegmentDecay
	SegmentSustain
	SegmentRelease
	SegmentDone
)

// fastReleaseTime is substituted for a zero/negative release time so a
// forced "quick end" (exclusive-class stealing) still takes one audible,
// click-free step down to silence instead of jumping there instantaneously.
const fastReleaseTime = 0.01

// voiceEnvelope is the runtime state of one envelope (amp or mod) for one
// voice: current level/slope plus how many samples remain before the next
// segment transition.
type voiceEnvelope struct {
	level, slope            float64
	samplesUntilNextSegment int
	segment                 Segment
	segmentIsExponential    bool
	exponentialDecay        bool
	parameters              Envelope
}

// setup starts an envelope for a freshly triggered voice. key is the MIDI
// note number, used to resolve key-tracked hold/decay from timecents to
// seconds (§4.5). exponential selects the amp-envelope-style exponential
// decay/release law vs. the mod envelope's linear one.
func (e *voiceEnvelope) setup(params Envelope, key int, exponential bool, sampleRate float64) {
	e.parameters = params
	if e.parameters.KeynumToHold != 0 {
		e.parameters.Hold += e.parameters.KeynumToHold * (60 - float64(key))
		e.parameters.Hold = pinTimecents(e.parameters.Hold, -10000)
	}
	if e.parameters.KeynumToDecay != 0 {
		e.parameters.Decay += e.parameters.KeynumToDecay * (60 - float64(key))
		e.parameters.Decay = pinTimecents(e.parameters.Decay, -10000)
	}
	e.exponentialDecay = exponential
	e.nextSegment(SegmentNone, sampleRate)
}

func pinTimecents(tc, floor float64) float64 {
	if tc < floor {
		return 0
	}
	return timecents2Secs(tc)
}

// process advances the envelope by numSamples, the render-block granularity
// at which level is sampled for gain/modulation math (§4.8). A linear slope
// adds; an exponential one multiplies by slope^numSamples, so splitting a
// block in two and running it in sequence reproduces the single-block result
// (the evolution-law invariant of §8 property 3).
func (e *voiceEnvelope) process(numSamples int, sampleRate float64) {
	if e.slope != 0 {
		if e.segmentIsExponential {
			e.level *= math.Pow(e.slope, float64(numSamples))
		} else {
			e.level += e.slope * float64(numSamples)
		}
	}
	e.samplesUntilNextSegment -= numSamples
	if e.samplesUntilNextSegment <= 0 {
		e.nextSegment(e.segment, sampleRate)
	}
}

// nextSegment transitions out of activeSegment, falling through
// zero-duration segments until one with positive duration is found (or the
// chain bottoms out at Sustain/Done), per the table in §4.5.
func (e *voiceEnvelope) nextSegment(activeSegment Segment, sampleRate float64) {
	p := &e.parameters
	switch activeSegment {
	case SegmentNone:
		e.samplesUntilNextSegment = int(p.Delay * sampleRate)
		if e.samplesUntilNextSegment > 0 {
			e.segment = SegmentDelay
			e.segmentIsExponential = false
			e.level = 0
			e.slope = 0
			return
		}
		fallthrough
	case SegmentDelay:
		e.samplesUntilNextSegment = int(p.Attack * sampleRate)
		if e.samplesUntilNextSegment > 0 {
			e.segment = SegmentAttack
			e.segmentIsExponential = false
			e.level = 0
			e.slope = 1.0 / float64(e.samplesUntilNextSegment)
			return
		}
		fallthrough
	case SegmentAttack:
		e.samplesUntilNextSegment = int(p.Hold * sampleRate)
		if e.samplesUntilNextSegment > 0 {
			e.segment = SegmentHold
			e.segmentIsExponential = false
			e.level = 1
			e.slope = 0
			return
		}
		fallthrough
	case SegmentHold:
		e.samplesUntilNextSegment = int(p.Decay * sampleRate)
		if e.samplesUntilNextSegment > 0 {
			e.segment = SegmentDecay
			e.level = 1
			if e.exponentialDecay {
				mysterySlope := -9.226 / float64(e.samplesUntilNextSegment)
				e.slope = math.Exp(mysterySlope)
				e.segmentIsExponential = true
				if p.Sustain > 0 {
					e.samplesUntilNextSegment = int(math.Log((p.Sustain/100.0)/e.level) / mysterySlope)
				}
			} else {
				e.slope = (p.Sustain/100.0 - 1.0) / float64(e.samplesUntilNextSegment)
				e.segmentIsExponential = false
			}
			return
		}
		fallthrough
	case SegmentDecay:
		e.segment = SegmentSustain
		e.level = p.Sustain / 100.0
		e.slope = 0
		e.samplesUntilNextSegment = math.MaxInt32
		e.segmentIsExponential = false
		return
	case SegmentSustain:
		e.segment = SegmentRelease
		release := p.Release
		if release <= 0 {
			release = fastReleaseTime
		}
		e.samplesUntilNextSegment = int(release * sampleRate)
		if e.exponentialDecay {
			mysterySlope := -9.226 / float64(e.samplesUntilNextSegment)
			e.slope = math.Exp(mysterySlope)
			e.segmentIsExponential = true
		} else {
			e.slope = -e.level / float64(e.samplesUntilNextSegment)
			e.segmentIsExponential = false
		}
		return
	case SegmentRelease:
		fallthrough
	default:
		e.segment = SegmentDone
		e.segmentIsExponential = false
		e.level, e.slope = 0, 0
		e.samplesUntilNextSegment = math.MaxInt32
	}
}
