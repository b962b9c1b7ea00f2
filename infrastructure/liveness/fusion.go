package liveness

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"prism.io/infrastructure/liveness/types"
)

// fusionInput gathers every sub-signal feeding one decision pass.
type fusionInput struct {
	Quality       types.QualityVerdict
	RPPG          types.RPPGReading
	Physics       types.PhysicsReading
	ChromaPassed  bool
	Temporal      types.TemporalReading
	Spoof         types.SpoofReading
	RGBSamples    int
	GreenSamples  int
	RawBPMHistory []float64
}

// Buffer depth required before a hard gate is trusted: the texture gate fires
// on sparse evidence, the static gate needs the full ~2s variance window.
const (
	textureGateMinSamples = 30
	staticGateMinSamples  = 60
)

// fuse combines every sub-signal into the final verdict. Hard gates are
// evaluated first and short-circuit the weighted scoring entirely, so later
// weight tuning can never dilute a screen-spoof detection.
func fuse(cfg Config, in fusionInput) (bool, float64, map[string]any) {
	details := baseDetails(in)

	if in.Spoof.ScreenTextureDetected && in.GreenSamples >= textureGateMinSamples {
		details["forced_false_reason"] = types.ForcedFalseScreenTexture
		return false, 0, details
	}
	if in.Spoof.IsStatic && in.Spoof.StaticEvaluated && in.GreenSamples >= staticGateMinSamples {
		details["forced_false_reason"] = types.ForcedFalseStaticImage
		return false, 0, details
	}

	score := 0.0

	// rPPG, weighted by how clean the recovered pulse is.
	if in.RPPG.Valid {
		contribution := cfg.WeightRPPG * in.RPPG.SignalQuality
		score += contribution
		details["rppg_contribution"] = round1(contribution)
	} else if in.RGBSamples > 30 {
		// Partial credit while the buffer is still filling.
		score += 5
		details["rppg_warmup_bonus"] = 5
	}

	if in.RPPG.HRV.Valid {
		score += cfg.WeightHRV
		details["hrv_contribution"] = cfg.WeightHRV
	}

	// Subsurface scattering, scaled by margin over the threshold.
	if in.Physics.SSSRatio != nil {
		ratio := *in.Physics.SSSRatio
		if in.Physics.SSSPassed {
			sssConfidence := math.Min(1, (ratio-cfg.SSSRatioThreshold)/0.15)
			sssConfidence = math.Max(0.5, sssConfidence)
			contribution := cfg.WeightSSS * sssConfidence
			score += contribution
			details["physics_contribution"] = round1(contribution)
		} else if ratio > cfg.SSSRatioThreshold-0.15 {
			partial := cfg.WeightSSS * 0.3
			score += partial
			details["physics_partial"] = round1(partial)
		}
	}

	// Corneal probe is supporting evidence, never decisive on its own.
	if in.Physics.CornealPassed != nil && *in.Physics.CornealPassed {
		score += 5
		details["corneal_contribution"] = 5
		if in.Physics.GlintSymmetry >= cfg.GlintSymmetryThreshold {
			score += 2
			details["glint_symmetry_bonus"] = 2
		}
	}

	if in.ChromaPassed {
		score += cfg.WeightChroma
		details["chroma_contribution"] = cfg.WeightChroma
	}

	if in.Temporal.Passed {
		bonus := math.Min(10, in.Temporal.Strength*15)
		score += cfg.WeightTemporal + bonus
		details["temporal_contribution"] = round1(cfg.WeightTemporal + bonus)
	}

	if in.Spoof.MoireDetected {
		score -= cfg.WeightMoire * 3
		details["moire_penalty"] = -cfg.WeightMoire * 3
	} else {
		score += cfg.WeightMoire
		details["moire_contribution"] = cfg.WeightMoire
	}

	// A photo held to the camera can fake a pulse through sensor noise, but
	// the fake BPM wanders; a real heart rate is stable over tens of seconds.
	if len(in.RawBPMHistory) >= 15 {
		bpmStd := stat.PopStdDev(in.RawBPMHistory, nil)
		details["bpm_stability_std"] = round1(bpmStd)
		if bpmStd > cfg.BPMStabilityThreshold {
			penalty := math.Min(30, (bpmStd-cfg.BPMStabilityThreshold)*1.5)
			score -= penalty
			details["bpm_stability_penalty"] = round1(-penalty)
		}
	}

	// High variance under an active stimulus is usually auto-exposure, not an
	// attack. Penalize, don't reject.
	if in.Spoof.LightingUnstable {
		score -= 10
		details["lighting_penalty"] = -10
	}

	if in.Spoof.StaticEvaluated && !in.Spoof.IsStatic {
		score += 15
		details["alive_bonus"] = 15
	}

	if in.Spoof.ScreenFlickerDetected {
		score -= 40
		details["screen_flicker_penalty"] = -40
	}

	confidence := math.Max(0, math.Min(100, score))
	return confidence >= cfg.DecisionThreshold, round1(confidence), details
}

// baseDetails lays down the stable diagnostic keys. Everything else in fuse
// is additive on top of this map.
func baseDetails(in fusionInput) map[string]any {
	details := map[string]any{
		"quality_gate":            in.Quality.Passed,
		"quality_gate_reason":     in.Quality.Reason,
		"motion_score":            round3(in.Quality.MotionScore),
		"blur_var":                round3(in.Quality.BlurVariance),
		"exposure_clip_pct":       round3(in.Quality.ExposureClipPct),
		"roi_min_dim":             in.Quality.ROIMinDim,
		"chroma_passed":           in.ChromaPassed,
		"physics_passed":          in.Physics.SSSPassed,
		"temporal_xcorr_passed":   in.Temporal.Passed,
		"temporal_xcorr_strength": round3(in.Temporal.Strength),
		"temporal_xcorr_delay_ms": round1(in.Temporal.DelayMS),
		"is_static_image":         in.Spoof.IsStatic,
		"signal_variance":         round3(in.Spoof.SignalVariance),
		"lighting_unstable":       in.Spoof.LightingUnstable,
		"screen_texture_detected": in.Spoof.ScreenTextureDetected,
		"texture_uniformity":      round3(in.Spoof.TextureUniformity),
		"screen_flicker_detected": in.Spoof.ScreenFlickerDetected,
		"screen_flicker_ratio":    round3(in.Spoof.ScreenFlickerRatio),
		"moire_detected":          in.Spoof.MoireDetected,
		"moire_score":             round3(in.Spoof.MoireScore),
		"hrv_rmssd":               round3(in.RPPG.HRV.RMSSD),
		"hrv_sdnn":                round3(in.RPPG.HRV.SDNN),
		"hrv_entropy":             round3(in.RPPG.HRV.Entropy),
		"bpm_snr":                 round3(in.RPPG.PeakSNR),
		"forced_false_reason":     "",
	}
	if in.Physics.SSSRatio != nil {
		details["sss_ratio"] = round3(*in.Physics.SSSRatio)
		details["sss_red_variance"] = round3(in.Physics.RedVariance)
		details["sss_blue_variance"] = round3(in.Physics.BlueVariance)
	} else {
		details["sss_ratio"] = nil
	}
	if in.Physics.CornealPassed != nil {
		details["corneal_passed"] = *in.Physics.CornealPassed
		details["corneal_decoupling"] = round3(in.Physics.CornealDecouple)
		details["glint_symmetry"] = round3(in.Physics.GlintSymmetry)
	} else {
		details["corneal_passed"] = nil
	}
	return details
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
