package liveness

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"prism.io/infrastructure/liveness/types"
)

// rgbSample is one accepted frame's mean forehead color in RGB order.
type rgbSample [3]float64

// bvpExtractor projects a window of mean-RGB samples onto a 1-D blood volume
// pulse waveform. The method is chosen once at session construction.
type bvpExtractor interface {
	Method() types.RPPGMethod
	Project(window []rgbSample) []float64
}

func newBVPExtractor(method types.RPPGMethod) bvpExtractor {
	switch method {
	case types.MethodGreen:
		return greenExtractor{}
	case types.MethodChrom:
		return chromExtractor{}
	default:
		return posExtractor{}
	}
}

// normalizeChannels divides each channel by its temporal mean and subtracts
// one, suppressing slow illumination level differences between channels.
func normalizeChannels(window []rgbSample) (r, g, b []float64) {
	n := len(window)
	r = make([]float64, n)
	g = make([]float64, n)
	b = make([]float64, n)
	var meanR, meanG, meanB float64
	for _, s := range window {
		meanR += s[0]
		meanG += s[1]
		meanB += s[2]
	}
	meanR /= float64(n)
	meanG /= float64(n)
	meanB /= float64(n)
	if meanR <= 1e-6 {
		meanR = 1
	}
	if meanG <= 1e-6 {
		meanG = 1
	}
	if meanB <= 1e-6 {
		meanB = 1
	}
	for i, s := range window {
		r[i] = s[0]/meanR - 1
		g[i] = s[1]/meanG - 1
		b[i] = s[2]/meanB - 1
	}
	return r, g, b
}

// greenExtractor uses the normalized green channel directly. Cheapest, but
// sensitive to motion-induced luminance swings.
type greenExtractor struct{}

func (greenExtractor) Method() types.RPPGMethod { return types.MethodGreen }

func (greenExtractor) Project(window []rgbSample) []float64 {
	_, g, _ := normalizeChannels(window)
	return g
}

// chromExtractor implements the chrominance combination of de Haan & Jeanne
// (2013), cancelling motion-driven luminance changes.
type chromExtractor struct{}

func (chromExtractor) Method() types.RPPGMethod { return types.MethodChrom }

func (chromExtractor) Project(window []rgbSample) []float64 {
	r, g, b := normalizeChannels(window)
	n := len(window)
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = 3*r[i] - 2*g[i]
		y[i] = 1.5*r[i] + g[i] - 1.5*b[i]
	}
	alpha := scaleRatio(x, y)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = x[i] - alpha*y[i]
	}
	return out
}

// posExtractor implements the plane-orthogonal-to-skin projection of Wang et
// al. (2017). Most robust to illumination drift; the default.
type posExtractor struct{}

func (posExtractor) Method() types.RPPGMethod { return types.MethodPOS }

func (posExtractor) Project(window []rgbSample) []float64 {
	r, g, b := normalizeChannels(window)
	n := len(window)
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = g[i] - b[i]
		y[i] = -2*r[i] + g[i] + b[i]
	}
	alpha := scaleRatio(x, y)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = x[i] + alpha*y[i]
	}
	return out
}

func scaleRatio(x, y []float64) float64 {
	stdY := stat.PopStdDev(y, nil)
	if stdY <= 0 {
		return 1
	}
	return stat.PopStdDev(x, nil) / (stdY + 1e-10)
}

// weightedBPM is one smoothed heart-rate observation with its quality weight.
type weightedBPM struct {
	bpm     float64
	quality float64
}

// analyzeRPPG turns the rolling RGB buffer into a heart-rate reading. Returns
// an empty reading (nil BPM) until the buffer holds a full analysis window —
// a confident number is never fabricated from thin data.
func analyzeRPPG(cfg Config, extractor bvpExtractor, window []rgbSample, bpmHistory *ringBuffer[weightedBPM], rawBPMHistory *ringBuffer[float64]) types.RPPGReading {
	reading := types.RPPGReading{}
	if len(window) < cfg.BufferSize {
		return reading
	}
	windowSeconds := float64(len(window)) / float64(cfg.FPS)
	if windowSeconds < cfg.RPPGMinWindowSeconds {
		return reading
	}

	raw := extractor.Project(window)
	normalized := zscore(detrend(raw))
	if normalized == nil {
		return reading
	}

	lowHz := float64(cfg.MinBPM) / 60
	highHz := float64(cfg.MaxBPM) / 60
	filtered := bandpass(normalized, float64(cfg.FPS), lowHz, highHz)

	freqs, psd := welchPSD(filtered, float64(cfg.FPS))
	if len(psd) == 0 {
		return reading
	}

	peakIdx := -1
	var peakPower, bandPower, totalPower float64
	for i, f := range freqs {
		totalPower += psd[i]
		if f < lowHz || f > highHz {
			continue
		}
		bandPower += psd[i]
		if peakIdx == -1 || psd[i] > peakPower {
			peakIdx = i
			peakPower = psd[i]
		}
	}
	if peakIdx == -1 || totalPower <= 0 {
		return reading
	}

	// SQI: share of spectral power concentrated in the plausible cardiac band.
	signalQuality := bandPower / totalPower

	// SNR of the dominant peak against the rest of the band, as an extra
	// diagnostic.
	var noisePower float64
	var noiseBins int
	for i, f := range freqs {
		if f < lowHz || f > highHz {
			continue
		}
		if i >= peakIdx-2 && i <= peakIdx+2 {
			continue
		}
		noisePower += psd[i]
		noiseBins++
	}
	snr := 0.0
	if noiseBins > 0 {
		snr = peakPower / (noisePower/float64(noiseBins) + 1e-10)
	}

	currentBPM := freqs[peakIdx] * 60
	rawBPMHistory.Append(currentBPM)
	bpmHistory.Append(weightedBPM{bpm: currentBPM, quality: signalQuality})

	// Quality-weighted temporal smoothing over recent estimates.
	var weightedSum, weightSum float64
	for _, h := range bpmHistory.Values() {
		weightedSum += h.bpm * h.quality
		weightSum += h.quality
	}
	smoothedBPM := currentBPM
	if weightSum > 0 {
		smoothedBPM = weightedSum / weightSum
	}
	bpm := int(math.Round(smoothedBPM))

	reading.BPM = &bpm
	reading.SignalQuality = signalQuality
	reading.PeakSNR = snr
	reading.HRV = extractHRV(cfg, filtered)
	reading.Valid = bpm >= cfg.MinBPM && bpm <= cfg.MaxBPM && signalQuality >= cfg.MinSignalQuality
	return reading
}

// extractHRV pulls beat-to-beat intervals out of the filtered waveform.
// Strictly periodic (synthetic) signals score near-zero entropy; biological
// pulse trains wander.
func extractHRV(cfg Config, bvp []float64) types.HRVMetrics {
	metrics := types.HRVMetrics{}
	if len(bvp) < 30 {
		return metrics
	}

	minBeatGap := int(float64(cfg.FPS) * 0.4) // 150 BPM refractory floor
	peaks := findPeaks(bvp, minBeatGap, 0.3*stat.PopStdDev(bvp, nil))
	if len(peaks) < 3 {
		return metrics
	}

	msPerSample := 1000 / float64(cfg.FPS)
	rr := []float64{}
	for i := 1; i < len(peaks); i++ {
		interval := float64(peaks[i]-peaks[i-1]) * msPerSample
		if interval > 333 && interval < 1500 { // 40-180 BPM
			rr = append(rr, interval)
		}
	}
	if len(rr) < 2 {
		return metrics
	}

	var sumSquaredDiff float64
	for i := 1; i < len(rr); i++ {
		d := rr[i] - rr[i-1]
		sumSquaredDiff += d * d
	}
	metrics.RMSSD = math.Sqrt(sumSquaredDiff / float64(len(rr)-1))
	metrics.SDNN = stat.PopStdDev(rr, nil)
	metrics.Entropy = shannonEntropy(rr, 10)
	metrics.Valid = metrics.RMSSD >= cfg.HRVMinRMSSD && metrics.Entropy >= cfg.HRVEntropyThreshold
	return metrics
}
