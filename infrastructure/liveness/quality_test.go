package liveness

import (
	"testing"

	"prism.io/infrastructure/liveness/types"
)

func TestComputeQualityVerdict(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		roi        plane
		prev       plane
		wantPassed bool
		wantReason string
	}{
		{
			name:       "textured well lit frame passes",
			roi:        grayPlane(noisyRGBA(64, 64, 170, 150, 140, 30, 1)),
			wantPassed: true,
			wantReason: types.QualityPass,
		},
		{
			name:       "roi below minimum size",
			roi:        grayPlane(noisyRGBA(10, 10, 170, 150, 140, 30, 2)),
			wantPassed: false,
			wantReason: types.QualityROITooSmall,
		},
		{
			name:       "flat frame is too blurry",
			roi:        grayPlane(uniformRGBA(64, 64, 128, 128, 128)),
			wantPassed: false,
			wantReason: types.QualityTooBlurry,
		},
		{
			name:       "blown out frame fails exposure",
			roi:        grayPlane(noisyRGBA(64, 64, 253, 253, 253, 3, 3)),
			wantPassed: false,
			wantReason: types.QualityBadExposure,
		},
		{
			name:       "large inter-frame jump fails motion",
			roi:        grayPlane(noisyRGBA(64, 64, 200, 200, 200, 20, 4)),
			prev:       grayPlane(noisyRGBA(64, 64, 80, 80, 80, 20, 5)),
			wantPassed: false,
			wantReason: types.QualityTooMuchMotion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := computeQualityVerdict(cfg, tt.roi, tt.prev)
			if verdict.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v (reason %q)", verdict.Passed, tt.wantPassed, verdict.Reason)
			}
			if verdict.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verdict.Reason, tt.wantReason)
			}
		})
	}
}

func TestQualityGateDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableQualityGate = false

	verdict := computeQualityVerdict(cfg, grayPlane(uniformRGBA(8, 8, 0, 0, 0)), plane{})

	if !verdict.Passed {
		t.Error("disabled gate should pass every frame")
	}
	if verdict.Reason != types.QualityDisabled {
		t.Errorf("Reason = %q, want %q", verdict.Reason, types.QualityDisabled)
	}
}

func TestQualityVerdictMetricsPopulated(t *testing.T) {
	cfg := DefaultConfig()
	roi := grayPlane(noisyRGBA(48, 40, 170, 150, 140, 30, 6))
	prev := grayPlane(noisyRGBA(48, 40, 170, 150, 140, 30, 7))

	verdict := computeQualityVerdict(cfg, roi, prev)

	if verdict.ROIMinDim != 40 {
		t.Errorf("ROIMinDim = %v, want 40", verdict.ROIMinDim)
	}
	if verdict.BlurVariance <= 0 {
		t.Error("BlurVariance should be positive for a textured frame")
	}
	if verdict.MotionScore <= 0 {
		t.Error("MotionScore should be positive for two independent noise frames")
	}
}
