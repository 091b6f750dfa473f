package soundfont

// voiceLFO is a triangle-wave low-frequency oscillator in [-1, 1], delayed
// by samplesUntil samples after note-on (§4.6).
type voiceLFO struct {
	samplesUntil int
	level        float64
	delta        float64
}

// setup arms the LFO: delaySecs of silence, then a triangle wave at
// freqCents (an SF2 absolute-cents frequency).
func (l *voiceLFO) setup(delaySecs float64, freqCents int, sampleRate float64) {
	l.samplesUntil = int(delaySecs * sampleRate)
	l.delta = 4.0 * cents2Hertz(float64(freqCents)) / sampleRate
	l.level = 0
}

// process advances the LFO by blockSamples, reflecting the ramp at ±1 to
// keep it triangular.
func (l *voiceLFO) process(blockSamples int) {
	if l.samplesUntil > blockSamples {
		l.samplesUntil -= blockSamples
		return
	}
	l.level += l.delta * float64(blockSamples)
	switch {
	case l.level > 1:
		l.delta = -l.delta
		l.level = 2 - l.level
	case l.level < -1:
		l.delta = -l.delta
		l.level = -2 - l.level
	}
}
