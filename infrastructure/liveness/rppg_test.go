package liveness

import (
	"testing"

	"prism.io/infrastructure/liveness/types"
)

// rppgTestConfig uses a power-of-two window at 32fps so a 75 BPM pulse lands
// exactly on a spectral bin.
func rppgTestConfig() Config {
	cfg := DefaultConfig()
	cfg.FPS = 32
	cfg.BufferSize = 128
	return cfg
}

func TestAnalyzeRPPGRecoversPulseRate(t *testing.T) {
	cfg := rppgTestConfig()
	// 1.25 Hz pulse = 75 BPM.
	window := pulsedWindow(cfg.BufferSize, float64(cfg.FPS), 1.25, 5)

	methods := []types.RPPGMethod{types.MethodGreen, types.MethodChrom, types.MethodPOS}
	for _, method := range methods {
		t.Run(string(method), func(t *testing.T) {
			reading := analyzeRPPG(cfg, newBVPExtractor(method), window,
				newRingBuffer[weightedBPM](bpmHistoryCap), newRingBuffer[float64](rawBPMHistoryCap))

			if reading.BPM == nil {
				t.Fatal("BPM is nil for a clean pulsed window")
			}
			if *reading.BPM < 70 || *reading.BPM > 80 {
				t.Errorf("BPM = %d, want 75 +/- 5", *reading.BPM)
			}
			if !reading.Valid {
				t.Errorf("reading not valid: quality = %v", reading.SignalQuality)
			}
			if reading.SignalQuality < cfg.MinSignalQuality {
				t.Errorf("SignalQuality = %v, want >= %v", reading.SignalQuality, cfg.MinSignalQuality)
			}
		})
	}
}

func TestAnalyzeRPPGConstantSignal(t *testing.T) {
	cfg := rppgTestConfig()

	reading := analyzeRPPG(cfg, newBVPExtractor(types.MethodPOS), constantWindow(cfg.BufferSize),
		newRingBuffer[weightedBPM](bpmHistoryCap), newRingBuffer[float64](rawBPMHistoryCap))

	if reading.BPM != nil {
		t.Errorf("BPM = %d for a constant signal, want nil", *reading.BPM)
	}
	if reading.Valid {
		t.Error("constant signal must not produce a valid reading")
	}
}

func TestAnalyzeRPPGShortWindow(t *testing.T) {
	cfg := rppgTestConfig()
	window := pulsedWindow(cfg.BufferSize/2, float64(cfg.FPS), 1.25, 5)

	reading := analyzeRPPG(cfg, newBVPExtractor(types.MethodPOS), window,
		newRingBuffer[weightedBPM](bpmHistoryCap), newRingBuffer[float64](rawBPMHistoryCap))

	if reading.BPM != nil {
		t.Error("BPM should stay nil until the buffer holds a full window")
	}
}

func TestAnalyzeRPPGAppendsHistory(t *testing.T) {
	cfg := rppgTestConfig()
	window := pulsedWindow(cfg.BufferSize, float64(cfg.FPS), 1.25, 5)
	bpmHist := newRingBuffer[weightedBPM](bpmHistoryCap)
	rawHist := newRingBuffer[float64](rawBPMHistoryCap)

	analyzeRPPG(cfg, newBVPExtractor(types.MethodPOS), window, bpmHist, rawHist)

	if bpmHist.Len() != 1 {
		t.Errorf("bpm history len = %d, want 1", bpmHist.Len())
	}
	if rawHist.Len() != 1 {
		t.Errorf("raw bpm history len = %d, want 1", rawHist.Len())
	}
}

func TestBVPExtractorSelection(t *testing.T) {
	tests := []struct {
		method types.RPPGMethod
		want   types.RPPGMethod
	}{
		{method: types.MethodGreen, want: types.MethodGreen},
		{method: types.MethodChrom, want: types.MethodChrom},
		{method: types.MethodPOS, want: types.MethodPOS},
		{method: types.RPPGMethod("bogus"), want: types.MethodPOS},
	}
	for _, tt := range tests {
		if got := newBVPExtractor(tt.method).Method(); got != tt.want {
			t.Errorf("newBVPExtractor(%q).Method() = %q, want %q", tt.method, got, tt.want)
		}
	}
}
