package liveness

import (
	"math"
	"testing"
)

func sine(n int, fs, hz, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*hz*float64(i)/fs)
	}
	return out
}

func signalEnergy(s []float64) float64 {
	var total float64
	for _, v := range s {
		total += v * v
	}
	return total
}

func TestZscore(t *testing.T) {
	t.Run("flat signal has no score", func(t *testing.T) {
		if got := zscore([]float64{5, 5, 5, 5}); got != nil {
			t.Errorf("zscore(flat) = %v, want nil", got)
		}
	})

	t.Run("normalizes mean and spread", func(t *testing.T) {
		got := zscore([]float64{1, 2, 3, 4, 5})
		if got == nil {
			t.Fatal("zscore returned nil for a varying signal")
		}
		var mean float64
		for _, v := range got {
			mean += v
		}
		mean /= float64(len(got))
		if math.Abs(mean) > 1e-9 {
			t.Errorf("zscored mean = %v, want ~0", mean)
		}
	})
}

func TestDetrendRemovesRamp(t *testing.T) {
	ramp := make([]float64, 100)
	for i := range ramp {
		ramp[i] = 0.5*float64(i) + 3
	}

	got := detrend(ramp)

	for i, v := range got {
		if math.Abs(v) > 1e-6 {
			t.Fatalf("detrend residual at %d = %v, want ~0", i, v)
		}
	}
}

func TestBandpassAttenuatesOutOfBand(t *testing.T) {
	const fs = 30.0
	// Cardiac band for 40-180 BPM.
	const lowHz, highHz = 40.0 / 60, 180.0 / 60

	inBand := bandpass(sine(300, fs, 1.5, 1), fs, lowHz, highHz)
	outOfBand := bandpass(sine(300, fs, 0.1, 1), fs, lowHz, highHz)

	ratio := signalEnergy(outOfBand) / signalEnergy(inBand)
	if ratio > 0.2 {
		t.Errorf("out-of-band/in-band energy ratio = %v, want < 0.2", ratio)
	}
}

func TestWelchPSDPeakFrequency(t *testing.T) {
	const fs = 32.0
	signal := sine(128, fs, 1.25, 1)

	freqs, psd := welchPSD(signal, fs)
	if len(psd) == 0 {
		t.Fatal("welchPSD returned no spectrum")
	}

	peakIdx := 0
	for i := range psd {
		if psd[i] > psd[peakIdx] {
			peakIdx = i
		}
	}
	if math.Abs(freqs[peakIdx]-1.25) > 0.26 {
		t.Errorf("peak frequency = %v Hz, want ~1.25 Hz", freqs[peakIdx])
	}
}

func TestWelchPSDTooShort(t *testing.T) {
	_, psd := welchPSD([]float64{1, 2, 3}, 30)
	if psd != nil {
		t.Errorf("welchPSD on 3 samples = %v, want nil", psd)
	}
}

func TestFindPeaks(t *testing.T) {
	// Two prominent peaks and one tiny bump that prominence should reject.
	signal := []float64{0, 0, 5, 0, 0, 0.2, 0, 0, 4, 0, 0}

	peaks := findPeaks(signal, 2, 1.0)

	if len(peaks) != 2 {
		t.Fatalf("found %d peaks %v, want 2", len(peaks), peaks)
	}
	if peaks[0] != 2 || peaks[1] != 8 {
		t.Errorf("peaks = %v, want [2 8]", peaks)
	}
}

func TestFindPeaksRefractoryDistance(t *testing.T) {
	// Two close peaks; the taller one wins.
	signal := []float64{0, 3, 0, 4, 0, 0, 0, 0}

	peaks := findPeaks(signal, 4, 0.5)

	if len(peaks) != 1 || peaks[0] != 3 {
		t.Errorf("peaks = %v, want [3]", peaks)
	}
}

func TestShannonEntropy(t *testing.T) {
	t.Run("identical intervals score zero", func(t *testing.T) {
		if got := shannonEntropy([]float64{800, 800, 800, 800}, 10); got != 0 {
			t.Errorf("entropy of constant intervals = %v, want 0", got)
		}
	})

	t.Run("spread intervals score positive", func(t *testing.T) {
		values := []float64{700, 750, 810, 860, 920, 980, 1040, 1100}
		if got := shannonEntropy(values, 10); got <= 0 {
			t.Errorf("entropy of spread intervals = %v, want > 0", got)
		}
	})
}
