package liveness

import (
	"gonum.org/v1/gonum/stat"

	"prism.io/infrastructure/liveness/types"
)

// stimRespSample pairs the displayed stimulus scalar with the face's observed
// response scalar at one capture instant.
type stimRespSample struct {
	timestampMS int64
	stimulus    float64
	response    float64
}

// minTemporalSamples is the shortest series worth correlating (~1.5s at 30fps).
const minTemporalSamples = 45

// evaluateTemporal cross-correlates the stimulus timeline against the observed
// facial response over a bounded lag range. A reactive subject produces a
// correlation peak at a biologically plausible delay; a replay produces none,
// and a synthetic rig mirrors the stimulus with no delay at all. Both fail.
func evaluateTemporal(cfg Config, samples []stimRespSample) types.TemporalReading {
	reading := types.TemporalReading{}
	if !cfg.EnableTemporalXcorr || len(samples) < minTemporalSamples {
		return reading
	}

	stim := make([]float64, len(samples))
	resp := make([]float64, len(samples))
	for i, s := range samples {
		stim[i] = s.stimulus
		resp[i] = s.response
	}
	stim = zscore(stim)
	resp = zscore(resp)
	if stim == nil || resp == nil {
		// A constant stimulus or a frozen response has no correlation signal.
		return reading
	}

	dtMS := 1000 / float64(cfg.FPS)
	maxLag := int(cfg.TemporalSearchMaxMS / dtMS)
	if maxLag > len(resp)-minCorrOverlap {
		maxLag = len(resp) - minCorrOverlap
	}

	bestCorr := -1.0
	bestLag := 0
	for lag := 0; lag <= maxLag; lag++ {
		a := stim[:len(stim)-lag]
		b := resp[lag:]
		if len(a) < minCorrOverlap {
			break
		}
		corr := stat.Mean(elementwiseProduct(a, b), nil)
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	reading.Evaluated = true
	reading.Strength = bestCorr
	reading.DelayMS = float64(bestLag) * dtMS
	reading.Passed = bestCorr >= cfg.TemporalXcorrMinCorr &&
		reading.DelayMS >= cfg.TemporalDelayMinMS &&
		reading.DelayMS <= cfg.TemporalDelayMaxMS
	return reading
}

const minCorrOverlap = 10

func elementwiseProduct(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}
