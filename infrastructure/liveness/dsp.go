package liveness

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// detrend removes the least-squares linear trend from the signal.
func detrend(signal []float64) []float64 {
	n := len(signal)
	if n < 2 {
		return append([]float64(nil), signal...)
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, signal, nil, false)
	out := make([]float64, n)
	for i, v := range signal {
		out[i] = v - (alpha + beta*float64(i))
	}
	return out
}

// zscore normalizes the signal to zero mean and unit variance. A flat signal
// returns nil: there is nothing to analyze.
func zscore(signal []float64) []float64 {
	mean := stat.Mean(signal, nil)
	std := stat.PopStdDev(signal, nil)
	if std == 0 {
		return nil
	}
	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = (v - mean) / std
	}
	return out
}

// biquad is a single second-order IIR section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

func (bq biquad) apply(signal []float64) []float64 {
	out := make([]float64, len(signal))
	var x1, x2, y1, y2 float64
	for i, x := range signal {
		y := bq.b0*x + bq.b1*x1 + bq.b2*x2 - bq.a1*y1 - bq.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// bandpass filters the signal to [lowHz, highHz] with a constant-peak-gain
// band-pass biquad, run forward and backward for zero phase shift.
func bandpass(signal []float64, fs, lowHz, highHz float64) []float64 {
	nyquist := fs / 2
	lowHz = math.Max(lowHz, 0.01)
	highHz = math.Min(highHz, nyquist*0.99)
	if highHz <= lowHz || len(signal) == 0 {
		return append([]float64(nil), signal...)
	}
	center := math.Sqrt(lowHz * highHz)
	q := center / (highHz - lowHz)
	omega := 2 * math.Pi * center / fs
	alpha := math.Sin(omega) / (2 * q)
	a0 := 1 + alpha
	bq := biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(omega) / a0,
		a2: (1 - alpha) / a0,
	}

	forward := bq.apply(signal)
	reverse(forward)
	backward := bq.apply(forward)
	reverse(backward)
	return backward
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// welchPSD estimates the power spectral density with Welch's method: Hamming
// windowed segments of up to 128 samples with 50% overlap, periodograms
// averaged. Returns parallel frequency and power slices.
func welchPSD(signal []float64, fs float64) ([]float64, []float64) {
	nperseg := len(signal)
	if nperseg > 128 {
		nperseg = 128
	}
	if nperseg < 8 {
		return nil, nil
	}
	step := nperseg / 2
	window := hamming(nperseg)
	var windowPower float64
	for _, w := range window {
		windowPower += w * w
	}

	fft := fourier.NewFFT(nperseg)
	nfreq := nperseg/2 + 1
	psd := make([]float64, nfreq)
	segments := 0
	buf := make([]float64, nperseg)
	coeffs := make([]complex128, nfreq)
	for start := 0; start+nperseg <= len(signal); start += step {
		seg := signal[start : start+nperseg]
		segMean := stat.Mean(seg, nil)
		for i, v := range seg {
			buf[i] = (v - segMean) * window[i]
		}
		coeffs = fft.Coefficients(coeffs, buf)
		for i, c := range coeffs {
			psd[i] += (real(c)*real(c) + imag(c)*imag(c)) / (windowPower * fs)
		}
		segments++
	}
	if segments == 0 {
		return nil, nil
	}
	freqs := make([]float64, nfreq)
	for i := range freqs {
		freqs[i] = float64(i) * fs / float64(nperseg)
		psd[i] /= float64(segments)
	}
	return freqs, psd
}

func hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// findPeaks returns indices of local maxima at least minDistance samples
// apart with prominence above minProminence, strongest first when competing.
func findPeaks(signal []float64, minDistance int, minProminence float64) []int {
	if minDistance < 1 {
		minDistance = 1
	}
	candidates := []int{}
	for i := 1; i < len(signal)-1; i++ {
		if signal[i] > signal[i-1] && signal[i] >= signal[i+1] {
			if prominence(signal, i) >= minProminence {
				candidates = append(candidates, i)
			}
		}
	}
	// Enforce the refractory distance, keeping the taller of two close peaks.
	peaks := []int{}
	for _, idx := range candidates {
		if len(peaks) > 0 && idx-peaks[len(peaks)-1] < minDistance {
			if signal[idx] > signal[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = idx
			}
			continue
		}
		peaks = append(peaks, idx)
	}
	return peaks
}

// prominence measures how far the peak rises above the higher of the two
// valley floors separating it from taller terrain.
func prominence(signal []float64, peak int) float64 {
	leftMin := signal[peak]
	for i := peak - 1; i >= 0; i-- {
		if signal[i] > signal[peak] {
			break
		}
		if signal[i] < leftMin {
			leftMin = signal[i]
		}
	}
	rightMin := signal[peak]
	for i := peak + 1; i < len(signal); i++ {
		if signal[i] > signal[peak] {
			break
		}
		if signal[i] < rightMin {
			rightMin = signal[i]
		}
	}
	return signal[peak] - math.Max(leftMin, rightMin)
}

// shannonEntropy bins the values into a fixed histogram and returns the
// Shannon entropy of the normalized bin occupancy.
func shannonEntropy(values []float64, bins int) float64 {
	if len(values) == 0 || bins <= 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return 0
	}
	counts := make([]float64, bins)
	for _, v := range values {
		bin := int(float64(bins) * (v - min) / (max - min))
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
	}
	probs := []float64{}
	for _, c := range counts {
		if c > 0 {
			probs = append(probs, c/float64(len(values)))
		}
	}
	return stat.Entropy(probs)
}
