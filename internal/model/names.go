package model

// Engine identifiers in registration order
const (
	EngineGlobalMovement    = "globalMovement"
	EngineBodyPosture       = "bodyPosture"
	EngineTail              = "tail"
	EngineEars              = "ears"
	EngineHeadGaze          = "headGaze"
	EngineSoundActivity     = "soundActivity"
	EngineVocalSignature    = "vocalSignature"
	EngineRhythm            = "rhythm"
	EngineTemporalVariation = "temporalVariation"
	EngineAccumulation      = "accumulation"
	EngineRecovery          = "recovery"
	EngineTransition        = "transition"
	EngineTimeOfDay         = "timeOfDay"
	EngineSessionDuration   = "sessionDuration"
	EngineRecentHistory     = "recentHistory"
	EngineBaseline          = "baseline"
)

// AllEngines returns every known engine id in registration order
func AllEngines() []string {
	return []string{
		EngineGlobalMovement, EngineBodyPosture, EngineTail, EngineEars, EngineHeadGaze,
		EngineSoundActivity, EngineVocalSignature, EngineRhythm,
		EngineTemporalVariation, EngineAccumulation, EngineRecovery, EngineTransition,
		EngineTimeOfDay, EngineSessionDuration, EngineRecentHistory, EngineBaseline,
	}
}

// Metric names emitted by the engine bank
const (
	// globalMovement
	MetricAverageSpeed        = "averageSpeed"
	MetricAccelerations       = "accelerations"
	MetricAgitation           = "agitation"
	MetricProlongedImmobility = "prolongedImmobility"

	// bodyPosture
	MetricBodyHeight         = "bodyHeight"
	MetricGeneralOrientation = "generalOrientation"
	MetricRigidity           = "rigidity"

	// tail
	MetricWagFrequency = "wagFrequency"
	MetricAmplitude    = "amplitude"
	MetricDirection    = "direction"
	MetricAsymmetry    = "asymmetry"

	// ears
	MetricPosition        = "position"
	MetricMicroMovements  = "microMovements"
	MetricRapidVariations = "rapidVariations"

	// headGaze
	MetricOrientation     = "orientation"
	MetricStability       = "stability"
	MetricSuddenMovements = "suddenMovements"

	// soundActivity
	MetricAverageVolume    = "averageVolume"
	MetricPeaks            = "peaks"
	MetricProlongedSilence = "prolongedSilence"

	// vocalSignature
	MetricBarking  = "barking"
	MetricWhining  = "whining"
	MetricGrowling = "growling"
	MetricPanting  = "panting"

	// rhythm
	MetricRepetition   = "repetition"
	MetricIrregularity = "irregularity"
	MetricBursts       = "bursts"

	// temporal
	MetricSignalVariation   = "signalVariation"
	MetricAccumulatedStress = "accumulatedStress"
	MetricRecoveryLevel     = "recoveryLevel"
	MetricRapidTransition   = "rapidTransition"

	// context
	MetricHourOfDay           = "hourOfDay"
	MetricSessionDuration     = "sessionDuration"
	MetricAverageRecentStress = "averageRecentStress"
	MetricBaselineActivation  = "baselineActivation"
)

// AllMetrics returns every metric name the engine bank can emit
func AllMetrics() []string {
	return []string{
		MetricAverageSpeed, MetricAccelerations, MetricAgitation, MetricProlongedImmobility,
		MetricBodyHeight, MetricGeneralOrientation, MetricRigidity,
		MetricWagFrequency, MetricAmplitude, MetricDirection, MetricAsymmetry,
		MetricPosition, MetricMicroMovements, MetricRapidVariations,
		MetricOrientation, MetricStability, MetricSuddenMovements,
		MetricAverageVolume, MetricPeaks, MetricProlongedSilence,
		MetricBarking, MetricWhining, MetricGrowling, MetricPanting,
		MetricRepetition, MetricIrregularity, MetricBursts,
		MetricSignalVariation, MetricAccumulatedStress, MetricRecoveryLevel, MetricRapidTransition,
		MetricHourOfDay, MetricSessionDuration, MetricAverageRecentStress, MetricBaselineActivation,
	}
}
