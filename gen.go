package soundfont

// SF2 generator operator indices, in the order defined by the SoundFont 2
// spec. Every operator is named, including unused and reserved ones; those
// applyGenerator has no case for match nothing there and are ignored,
// matching §4.3 ("unknown operators are ignored").
const (
	genStartAddrsOffset = iota
	genEndAddrsOffset
	genStartloopAddrsOffset
	genEndloopAddrsOffset
	genStartAddrsCoarseOffset
	genModLfoToPitch
	genVibLfoToPitch
	genModEnvToPitch
	genInitialFilterFc
	genInitialFilterQ
	genModLfoToFilterFc
	genModEnvToFilterFc
	genEndAddrsCoarseOffset
	genModLfoToVolume
	genUnused1
	genChorusEffectsSend
	genReverbEffectsSend
	genPan
	genUnused2
	genUnused3
	genUnused4
	genDelayModLFO
	genFreqModLFO
	genDelayVibLFO
	genFreqVibLFO
	genDelayModEnv
	genAttackModEnv
	genHoldModEnv
	genDecayModEnv
	genSustainModEnv
	genReleaseModEnv
	genKeynumToModEnvHold
	genKeynumToModEnvDecay
	genDelayVolEnv
	genAttackVolEnv
	genHoldVolEnv
	genDecayVolEnv
	genSustainVolEnv
	genReleaseVolEnv
	genKeynumToVolEnvHold
	genKeynumToVolEnvDecay
	genInstrument
	genReserved1
	genKeyRange
	genVelRange
	genStartloopAddrsCoarseOffset
	genKeynum
	genVelocity
	genInitialAttenuation
	genReserved2
	genEndloopAddrsCoarseOffset
	genCoarseTune
	genFineTune
	genSampleID
	genSampleModes
	genReserved3
	genScaleTuning
	genExclusiveClass
	genOverridingRootKey
	genUnused5
	genEndOper
)
