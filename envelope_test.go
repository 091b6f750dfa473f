package soundfont

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Test_voiceEnvelope_linear_block_split_invariant is §8 property 3 for the
// mod envelope's linear decay/release segments: splitting a segment's
// duration into two render blocks must reproduce the single-block result.
func Test_voiceEnvelope_linear_block_split_invariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n1 := rapid.IntRange(1, 500).Draw(t, "n1")
		n2 := rapid.IntRange(1, 500).Draw(t, "n2")
		slope := rapid.Float64Range(-1, 1).Draw(t, "slope")
		start := rapid.Float64Range(-10, 10).Draw(t, "start")

		whole := voiceEnvelope{level: start, slope: slope, segmentIsExponential: false, samplesUntilNextSegment: math.MaxInt32}
		whole.process(n1+n2, 44100)

		split := voiceEnvelope{level: start, slope: slope, segmentIsExponential: false, samplesUntilNextSegment: math.MaxInt32}
		split.process(n1, 44100)
		split.process(n2, 44100)

		assert.InDelta(t, whole.level, split.level, 1e-6)
	})
}

// Test_voiceEnvelope_exponential_block_split_invariant is the same law for
// the amp envelope's exponential decay/release, where the per-sample update
// is a multiply rather than an add.
func Test_voiceEnvelope_exponential_block_split_invariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n1 := rapid.IntRange(1, 500).Draw(t, "n1")
		n2 := rapid.IntRange(1, 500).Draw(t, "n2")
		slope := rapid.Float64Range(0.9, 0.999999).Draw(t, "slope")
		start := rapid.Float64Range(0.01, 1).Draw(t, "start")

		whole := voiceEnvelope{level: start, slope: slope, segmentIsExponential: true, samplesUntilNextSegment: math.MaxInt32}
		whole.process(n1+n2, 44100)

		split := voiceEnvelope{level: start, slope: slope, segmentIsExponential: true, samplesUntilNextSegment: math.MaxInt32}
		split.process(n1, 44100)
		split.process(n2, 44100)

		assert.InDelta(t, whole.level, split.level, 1e-6*math.Abs(whole.level)+1e-9)
	})
}

func Test_voiceEnvelope_segment_chain(t *testing.T) {
	e := voiceEnvelope{}
	params := Envelope{Delay: 0.01, Attack: 0.02, Hold: 0.01, Decay: 0.02, Sustain: 50, Release: 0.05}
	e.setup(params, 60, true, 1000)
	assert.Equal(t, SegmentDelay, e.segment)

	e.process(10, 1000) // delay (10 samples) elapses
	assert.Equal(t, SegmentAttack, e.segment)

	e.process(20, 1000) // attack elapses
	assert.Equal(t, SegmentHold, e.segment)

	e.process(10, 1000) // hold elapses
	assert.Equal(t, SegmentDecay, e.segment)
}

func Test_voiceEnvelope_zero_duration_segments_fall_through(t *testing.T) {
	e := voiceEnvelope{}
	params := Envelope{Delay: 0, Attack: 0, Hold: 0, Decay: 0, Sustain: 80, Release: 0.1}
	e.setup(params, 60, false, 1000)
	assert.Equal(t, SegmentSustain, e.segment)
	assert.InDelta(t, 0.8, e.level, 1e-9)
}

func Test_voiceEnvelope_keynum_tracking_shifts_hold(t *testing.T) {
	params := Envelope{Hold: 1000, KeynumToHold: 50}

	atCenter := voiceEnvelope{}
	atCenter.setup(params, 60, true, 44100) // (60-key) == 0, no shift

	above := voiceEnvelope{}
	above.setup(params, 72, true, 44100) // (60-key) == -12, hold shortened

	assert.Less(t, above.samplesUntilNextSegment, atCenter.samplesUntilNextSegment)
}
