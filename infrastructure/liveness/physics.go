package liveness

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"prism.io/infrastructure/liveness/types"
)

// evaluateSSS runs the subsurface-scattering probe on a face ROI captured
// under a white, red or blue stimulus. Red light penetrates skin 1-3mm and
// scatters internally, so its edges come back blurrier than blue's; a screen
// or print reflects both equally and lands near a 1.0 ratio.
func evaluateSSS(cfg Config, faceROI image.Image, stimulus types.StimulusColor) (passed bool, ratio *float64, redVar, blueVar float64) {
	switch stimulus {
	case types.StimulusWhite, types.StimulusRed, types.StimulusBlue:
	default:
		return false, nil, 0, 0
	}

	red := gaussianBlur3(channelPlane(faceROI, 0))
	blue := gaussianBlur3(channelPlane(faceROI, 2))
	if red.empty() || blue.empty() {
		return false, nil, 0, 0
	}

	redVar = laplacianVariance(red)
	blueVar = laplacianVariance(blue)
	if redVar < 0.001 {
		redVar = 0.001
	}
	r := blueVar / redVar
	return r > cfg.SSSRatioThreshold, &r, redVar, blueVar
}

// evaluateCorneal tests whether the corneal glint moves independently of the
// pupil across the recent eye-sample window. On a curved live cornea the
// specular highlight is decoupled from gaze motion; on a flat replayed
// surface both displace in lockstep. The left/right glint dispersion symmetry
// is a supporting signal only.
func evaluateCorneal(cfg Config, left, right []types.EyeSample) (passed *bool, decouple, symmetry float64) {
	if len(left) < cfg.CornealWindow || len(right) < cfg.CornealWindow {
		return nil, 0, 0
	}

	pupilMagsL, glintMagsL := displacementMagnitudes(left)
	pupilMagsR, glintMagsR := displacementMagnitudes(right)
	pupilMags := append(append([]float64{}, pupilMagsL...), pupilMagsR...)
	glintMags := append(append([]float64{}, glintMagsL...), glintMagsR...)

	if allZero(pupilMags) || allZero(glintMags) {
		// A perfectly frozen eye is indeterminate, not a pass.
		return nil, 0, 0
	}

	corr := stat.Correlation(pupilMags, glintMags, nil)
	if math.IsNaN(corr) {
		return nil, 0, 0
	}
	decouple = 1 - math.Abs(corr)
	symmetry = 1 - math.Abs(giniCoefficient(glintMagsL)-giniCoefficient(glintMagsR))

	ok := decouple >= cfg.CornealDecoupleMin
	return &ok, decouple, symmetry
}

// displacementMagnitudes converts an eye-sample window into per-step pupil
// and glint movement magnitudes.
func displacementMagnitudes(samples []types.EyeSample) (pupil, glint []float64) {
	pupil = make([]float64, 0, len(samples)-1)
	glint = make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		pupil = append(pupil, math.Hypot(samples[i].PupilX-samples[i-1].PupilX, samples[i].PupilY-samples[i-1].PupilY))
		glint = append(glint, math.Hypot(samples[i].GlintX-samples[i-1].GlintX, samples[i].GlintY-samples[i-1].GlintY))
	}
	return pupil, glint
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

// giniCoefficient measures dispersion inequality of the magnitudes: 0 when
// every step is equal, approaching 1 when one step dominates.
func giniCoefficient(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var cumulative, total float64
	for i, v := range sorted {
		cumulative += v * float64(2*(i+1)-n-1)
		total += v
	}
	if total == 0 {
		return 0
	}
	return cumulative / (float64(n) * total)
}

// evaluateChroma checks that the face's mean reflected color tracks the
// displayed stimulus. A pre-recorded feed keeps its baked-in lighting.
func evaluateChroma(cfg Config, faceROI image.Image, stimulus types.StimulusColor) bool {
	r, g, b := meanRGB(faceROI)
	switch stimulus {
	case types.StimulusRed:
		return r > b*cfg.ChromaSensitivity
	case types.StimulusBlue:
		// Skin absorbs blue heavily; the bar is lower.
		return b > r*0.8
	case types.StimulusGreen:
		return g > r*0.9 && g > b*0.9
	}
	// WHITE and NONE carry no directional expectation.
	return true
}
