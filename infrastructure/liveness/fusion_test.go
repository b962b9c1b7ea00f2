package liveness

import (
	"testing"

	"prism.io/infrastructure/liveness/types"
)

// healthyInput is a strong live-subject signal set: clean pulse, passing
// physics, tracking chroma and a plausible temporal delay.
func healthyInput() fusionInput {
	bpm := 72
	ratio := 1.4
	corneal := true
	return fusionInput{
		Quality: types.QualityVerdict{Passed: true, Reason: types.QualityPass},
		RPPG: types.RPPGReading{
			BPM:           &bpm,
			SignalQuality: 0.8,
			Valid:         true,
			HRV:           types.HRVMetrics{RMSSD: 40, SDNN: 50, Entropy: 1.2, Valid: true},
		},
		Physics: types.PhysicsReading{
			SSSPassed:       true,
			SSSRatio:        &ratio,
			CornealPassed:   &corneal,
			CornealDecouple: 0.7,
			GlintSymmetry:   0.9,
		},
		ChromaPassed: true,
		Temporal:     types.TemporalReading{Evaluated: true, Passed: true, Strength: 0.4, DelayMS: 170},
		Spoof:        types.SpoofReading{StaticEvaluated: true, IsStatic: false, SignalVariance: 2.1},
		RGBSamples:   90,
		GreenSamples: 90,
	}
}

func TestFuseHealthySubject(t *testing.T) {
	cfg := DefaultConfig()

	isHuman, confidence, details := fuse(cfg, healthyInput())

	if !isHuman {
		t.Errorf("healthy subject rejected with confidence %v", confidence)
	}
	if confidence < cfg.DecisionThreshold {
		t.Errorf("confidence = %v, want >= %v", confidence, cfg.DecisionThreshold)
	}
	if reason := details["forced_false_reason"]; reason != "" {
		t.Errorf("forced_false_reason = %v, want empty", reason)
	}
}

func TestFuseHardGates(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		mutate     func(*fusionInput)
		wantReason string
	}{
		{
			name: "screen texture overrides every positive signal",
			mutate: func(in *fusionInput) {
				in.Spoof.ScreenTextureDetected = true
				in.Spoof.TextureEvaluated = true
				in.Spoof.TextureUniformity = 2.0
			},
			wantReason: types.ForcedFalseScreenTexture,
		},
		{
			name: "static image overrides every positive signal",
			mutate: func(in *fusionInput) {
				in.Spoof.IsStatic = true
				in.Spoof.SignalVariance = 0.05
			},
			wantReason: types.ForcedFalseStaticImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := healthyInput()
			tt.mutate(&in)

			isHuman, confidence, details := fuse(cfg, in)

			if isHuman {
				t.Error("hard gate did not force is_human false")
			}
			if confidence != 0 {
				t.Errorf("confidence = %v, want 0", confidence)
			}
			if got := details["forced_false_reason"]; got != tt.wantReason {
				t.Errorf("forced_false_reason = %v, want %v", got, tt.wantReason)
			}
		})
	}
}

func TestFuseHardGatesNeedEvidence(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("texture gate withheld on sparse samples", func(t *testing.T) {
		in := healthyInput()
		in.Spoof.ScreenTextureDetected = true
		in.GreenSamples = textureGateMinSamples - 1

		_, confidence, details := fuse(cfg, in)

		if details["forced_false_reason"] != "" {
			t.Errorf("gate fired on %d samples: %v", in.GreenSamples, details["forced_false_reason"])
		}
		if confidence == 0 {
			t.Error("weighted scoring should still run when the gate is withheld")
		}
	})

	t.Run("static gate withheld below the variance window", func(t *testing.T) {
		in := healthyInput()
		in.Spoof.IsStatic = true
		in.Spoof.StaticEvaluated = false
		in.GreenSamples = staticGateMinSamples - 1

		_, _, details := fuse(cfg, in)

		if details["forced_false_reason"] != "" {
			t.Errorf("gate fired early: %v", details["forced_false_reason"])
		}
	})
}

func TestFuseFlickerPenalty(t *testing.T) {
	cfg := DefaultConfig()

	// Moderate evidence: chroma plus a living green signal, nothing else.
	in := fusionInput{
		Quality:      types.QualityVerdict{Passed: true, Reason: types.QualityPass},
		ChromaPassed: true,
		Spoof:        types.SpoofReading{StaticEvaluated: true, IsStatic: false, SignalVariance: 2.1},
		RGBSamples:   20,
		GreenSamples: 90,
	}

	_, baseline, _ := fuse(cfg, in)
	if baseline < cfg.DecisionThreshold {
		t.Fatalf("baseline confidence = %v, expected at least %v", baseline, cfg.DecisionThreshold)
	}

	in.Spoof.ScreenFlickerDetected = true
	in.Spoof.ScreenFlickerRatio = 4.2
	isHuman, penalized, details := fuse(cfg, in)

	if penalized >= baseline {
		t.Errorf("flicker did not reduce confidence: %v -> %v", baseline, penalized)
	}
	if isHuman {
		t.Errorf("flickering source accepted with confidence %v", penalized)
	}
	if details["screen_flicker_penalty"] == nil {
		t.Error("screen_flicker_penalty missing from details")
	}
}

func TestFuseBPMStabilityPenalty(t *testing.T) {
	cfg := DefaultConfig()

	stable := healthyInput()
	stable.RawBPMHistory = make([]float64, 20)
	for i := range stable.RawBPMHistory {
		stable.RawBPMHistory[i] = 72
	}

	wandering := healthyInput()
	wandering.RawBPMHistory = make([]float64, 20)
	for i := range wandering.RawBPMHistory {
		if i%2 == 0 {
			wandering.RawBPMHistory[i] = 45
		} else {
			wandering.RawBPMHistory[i] = 170
		}
	}

	_, stableConf, _ := fuse(cfg, stable)
	_, wanderingConf, details := fuse(cfg, wandering)

	if wanderingConf >= stableConf {
		t.Errorf("wandering BPM not penalized: stable=%v wandering=%v", stableConf, wanderingConf)
	}
	if details["bpm_stability_penalty"] == nil {
		t.Error("bpm_stability_penalty missing from details")
	}
}

func TestFuseStableDetailKeys(t *testing.T) {
	cfg := DefaultConfig()

	_, _, details := fuse(cfg, fusionInput{})

	wantKeys := []string{
		"quality_gate", "quality_gate_reason", "chroma_passed", "physics_passed",
		"temporal_xcorr_passed", "temporal_xcorr_strength", "temporal_xcorr_delay_ms",
		"is_static_image", "signal_variance", "lighting_unstable",
		"screen_texture_detected", "screen_flicker_detected", "moire_detected",
		"sss_ratio", "corneal_passed", "forced_false_reason",
	}
	for _, key := range wantKeys {
		if _, ok := details[key]; !ok {
			t.Errorf("details missing stable key %q", key)
		}
	}
}
