package liveness

import (
	"math"

	"prism.io/infrastructure/liveness/types"
)

// computeQualityVerdict scores one forehead ROI for usability and gates it
// against the configured thresholds. prev is the previous accepted ROI plane
// for the motion score; empty on the first frame.
func computeQualityVerdict(cfg Config, roi plane, prev plane) types.QualityVerdict {
	verdict := types.QualityVerdict{
		MotionScore:     absDiffMean(prev, roi),
		BlurVariance:    laplacianVariance(roi),
		ExposureClipPct: exposureClipFraction(roi),
		ROIMinDim:       math.Min(float64(roi.w), float64(roi.h)),
	}

	if !cfg.EnableQualityGate {
		verdict.Passed = true
		verdict.Reason = types.QualityDisabled
		return verdict
	}

	switch {
	case verdict.ROIMinDim < float64(cfg.MinROISize):
		verdict.Reason = types.QualityROITooSmall
	case verdict.BlurVariance < cfg.MinBlurVarLaplacian:
		verdict.Reason = types.QualityTooBlurry
	case verdict.ExposureClipPct > cfg.MaxExposureClipPct:
		verdict.Reason = types.QualityBadExposure
	case verdict.MotionScore > cfg.MaxMotionScore:
		verdict.Reason = types.QualityTooMuchMotion
	default:
		verdict.Passed = true
		verdict.Reason = types.QualityPass
	}
	return verdict
}
