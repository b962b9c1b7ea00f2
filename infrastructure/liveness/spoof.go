package liveness

import (
	"image"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"prism.io/infrastructure/liveness/types"
)

// minSpoofSamples is how much signal history the buffer-backed spoof checks
// need before they speak up (~2s at 30fps).
const minSpoofSamples = 60

// evaluateSpoof runs every screen/replay detection signal for the current
// frame. The texture check is the hard gate; the rest feed fusion as
// penalties.
func evaluateSpoof(cfg Config, faceROI image.Image, facePlane plane, greenHistory []float64) types.SpoofReading {
	reading := types.SpoofReading{}

	if !facePlane.empty() {
		reading.TextureEvaluated = true
		reading.TextureUniformity = localStdMean(facePlane, 5)
		// Rendered pixels are smoother than pores; abnormally low local
		// deviation marks a screen or print surface.
		reading.ScreenTextureDetected = reading.TextureUniformity < cfg.ScreenTextureUniformityMin

		reading.MoireScore = moireScore(facePlane)
		reading.MoireDetected = reading.MoireScore > 1/cfg.MoireThreshold
	}

	if len(greenHistory) >= minSpoofSamples {
		reading.ScreenFlickerRatio = flickerRatio(cfg, greenHistory)
		reading.ScreenFlickerDetected = reading.ScreenFlickerRatio > cfg.ScreenFlickerRatioMax

		reading.StaticEvaluated = true
		reading.SignalVariance = coefficientOfVariation(greenHistory)
		reading.IsStatic = reading.SignalVariance < cfg.MinSignalVariance
		reading.LightingUnstable = reading.SignalVariance > cfg.LightingVarianceMax
	} else {
		// Until the buffer fills, a static source is assumed rather than
		// proven alive.
		reading.IsStatic = true
	}

	return reading
}

// flickerRatio compares spectral power above the display-refresh band (>5 Hz)
// against the cardiac band. A camera filming a screen picks up backlight
// flicker mass far outside anything a pulse produces.
func flickerRatio(cfg Config, greenHistory []float64) float64 {
	n := len(greenHistory)
	if n > minSpoofSamples {
		greenHistory = greenHistory[n-minSpoofSamples:]
		n = minSpoofSamples
	}
	mean := stat.Mean(greenHistory, nil)
	centered := make([]float64, n)
	for i, v := range greenHistory {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centered)

	var cardiacPower, highPower float64
	for i, c := range coeffs {
		freq := float64(i) * float64(cfg.FPS) / float64(n)
		mag := math.Hypot(real(c), imag(c))
		if freq >= 0.75 && freq <= 3.0 {
			cardiacPower += mag
		} else if freq > 5.0 {
			highPower += mag
		}
	}
	if cardiacPower <= 0 {
		cardiacPower = 0.001
	}
	return highPower / (cardiacPower + 1e-6)
}

// coefficientOfVariation expresses the green-signal spread as a percentage of
// its mean, so the static-image check works across lighting levels.
func coefficientOfVariation(values []float64) float64 {
	const staticWindow = 90 // last ~3 seconds
	if len(values) > staticWindow {
		values = values[len(values)-staticWindow:]
	}
	mean := stat.Mean(values, nil)
	if mean < 1 {
		mean = 1
	}
	return stat.PopStdDev(values, nil) / mean * 100
}

// moireScore looks for sharp periodic peaks in the 2-D spectrum of the face
// region. Screen pixel grids interfere with the camera sensor and leave
// spikes that organic texture never produces.
func moireScore(p plane) float64 {
	if p.w < 32 || p.h < 32 {
		return 0
	}

	// Row-column decomposition of the 2-D FFT.
	grid := make([]complex128, p.w*p.h)
	for i, v := range p.pix {
		grid[i] = complex(v, 0)
	}
	rowFFT := fourier.NewCmplxFFT(p.w)
	row := make([]complex128, p.w)
	for y := 0; y < p.h; y++ {
		copy(row, grid[y*p.w:(y+1)*p.w])
		copy(grid[y*p.w:(y+1)*p.w], rowFFT.Coefficients(nil, row))
	}
	colFFT := fourier.NewCmplxFFT(p.h)
	col := make([]complex128, p.h)
	for x := 0; x < p.w; x++ {
		for y := 0; y < p.h; y++ {
			col[y] = grid[y*p.w+x]
		}
		out := colFFT.Coefficients(nil, col)
		for y := 0; y < p.h; y++ {
			grid[y*p.w+x] = out[y]
		}
	}

	// Log-magnitude, normalized, with the DC neighborhood masked out.
	logMag := make([]float64, len(grid))
	maxVal := 0.0
	for i, c := range grid {
		logMag[i] = math.Log1p(math.Hypot(real(c), imag(c)))
		if logMag[i] > maxVal {
			maxVal = logMag[i]
		}
	}
	if maxVal <= 1e-10 {
		return 0
	}

	const dcRadius = 10
	var peak, sum float64
	var count int
	for y := 0; y < p.h; y++ {
		fy := y
		if fy > p.h-fy {
			fy = p.h - fy
		}
		for x := 0; x < p.w; x++ {
			fx := x
			if fx > p.w-fx {
				fx = p.w - fx
			}
			if fy < dcRadius && fx < dcRadius {
				continue
			}
			v := logMag[y*p.w+x] / maxVal
			if v <= 0 {
				continue
			}
			if v > peak {
				peak = v
			}
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return peak / (sum/float64(count) + 1e-10)
}
