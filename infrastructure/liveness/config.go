package liveness

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"prism.io/infrastructure/liveness/types"
	"prism.io/infrastructure/validator"
)

// Config carries every tunable threshold of the engine. All values are read
// once at construction; a Session never re-reads configuration mid-stream.
type Config struct {
	FPS        int `validate:"gt=0,lte=120"`
	BufferSize int `validate:"gte=30"`

	RPPGMethod           types.RPPGMethod `validate:"rppg_method"`
	RPPGMinWindowSeconds float64          `validate:"gt=0"`

	EnableQualityGate   bool
	MaxMotionScore      float64 `validate:"gt=0"`
	MinBlurVarLaplacian float64 `validate:"gte=0"`
	MaxExposureClipPct  float64 `validate:"gte=0,lte=1"`
	MinROISize          int     `validate:"gt=0"`

	MinBPM           int     `validate:"gt=0"`
	MaxBPM           int     `validate:"gt=0"`
	MinSignalQuality float64 `validate:"gte=0,lte=1"`

	SSSRatioThreshold float64 `validate:"gt=0"`
	ChromaSensitivity float64 `validate:"gt=0,lte=2"`

	CornealWindow          int     `validate:"gte=3"`
	CornealDecoupleMin     float64 `validate:"gte=0,lte=1"`
	GlintSymmetryThreshold float64 `validate:"gte=0,lte=1"`

	EnableTemporalXcorr  bool
	TemporalXcorrMinCorr float64 `validate:"gte=0,lte=1"`
	TemporalDelayMinMS   float64 `validate:"gte=0"`
	TemporalDelayMaxMS   float64 `validate:"gt=0"`
	TemporalSearchMaxMS  float64 `validate:"gt=0"`

	HRVMinRMSSD         float64 `validate:"gte=0"`
	HRVEntropyThreshold float64 `validate:"gte=0"`

	MoireThreshold        float64 `validate:"gt=0"`
	BPMStabilityThreshold float64 `validate:"gt=0"`
	MinSignalVariance     float64 `validate:"gte=0"`
	LightingVarianceMax   float64 `validate:"gt=0"`

	ScreenTextureUniformityMin float64 `validate:"gt=0"`
	ScreenFlickerRatioMax      float64 `validate:"gt=0"`

	DecisionThreshold float64 `validate:"gte=0,lte=100"`

	WeightSSS      float64 `validate:"gte=0"`
	WeightChroma   float64 `validate:"gte=0"`
	WeightRPPG     float64 `validate:"gte=0"`
	WeightHRV      float64 `validate:"gte=0"`
	WeightTemporal float64 `validate:"gte=0"`
	WeightMoire    float64 `validate:"gte=0"`

	SessionIdleTTLSeconds int `validate:"gt=0"`
}

// DefaultConfig mirrors the field-tuned permissive profile: thresholds were
// loosened against real webcam lighting, while the screen-spoof hard gates
// stay absolute.
func DefaultConfig() Config {
	return Config{
		FPS:        30,
		BufferSize: 90, // 3 seconds at 30fps

		RPPGMethod:           types.MethodPOS,
		RPPGMinWindowSeconds: 3.0,

		EnableQualityGate:   true,
		MaxMotionScore:      20.0,
		MinBlurVarLaplacian: 15.0,
		MaxExposureClipPct:  0.35,
		MinROISize:          20,

		MinBPM:           40,
		MaxBPM:           180,
		MinSignalQuality: 0.10,

		SSSRatioThreshold: 0.75,
		ChromaSensitivity: 0.9,

		CornealWindow:          10,
		CornealDecoupleMin:     0.35,
		GlintSymmetryThreshold: 0.6,

		EnableTemporalXcorr:  true,
		TemporalXcorrMinCorr: 0.05,
		TemporalDelayMinMS:   100,
		TemporalDelayMaxMS:   300,
		TemporalSearchMaxMS:  500,

		HRVMinRMSSD:         3.0,
		HRVEntropyThreshold: 0.10,

		MoireThreshold:        0.08,
		BPMStabilityThreshold: 20.0,
		MinSignalVariance:     0.4,
		LightingVarianceMax:   25.0,

		ScreenTextureUniformityMin: 7.5,
		ScreenFlickerRatioMax:      1.5,

		DecisionThreshold: 40,

		WeightSSS:      10,
		WeightChroma:   25,
		WeightRPPG:     25,
		WeightHRV:      10,
		WeightTemporal: 20,
		WeightMoire:    5,

		SessionIdleTTLSeconds: 120,
	}
}

// StrictConfig tightens the continuous-score thresholds for deployments that
// prefer false negatives over false positives.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.MinSignalQuality = 0.25
	cfg.TemporalXcorrMinCorr = 0.15
	cfg.SSSRatioThreshold = 1.05
	cfg.HRVEntropyThreshold = 0.3
	cfg.MinSignalVariance = 0.8
	cfg.DecisionThreshold = 55
	return cfg
}

// ConfigFromEnv builds the engine config from the environment lookup. Unset
// keys keep profile defaults; LIVENESS_STRICT selects the strict profile.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if parseEnvBool("LIVENESS_STRICT") {
		cfg = StrictConfig()
	}
	overrideEnvInt("LIVENESS_FPS", &cfg.FPS)
	overrideEnvInt("LIVENESS_BUFFER_SIZE", &cfg.BufferSize)
	if method := strings.ToUpper(os.Getenv("LIVENESS_RPPG_METHOD")); method != "" {
		cfg.RPPGMethod = types.RPPGMethod(method)
	}
	overrideEnvFloat("LIVENESS_DECISION_THRESHOLD", &cfg.DecisionThreshold)
	overrideEnvFloat("LIVENESS_MIN_SIGNAL_QUALITY", &cfg.MinSignalQuality)
	overrideEnvFloat("LIVENESS_TEMPORAL_DELAY_MIN_MS", &cfg.TemporalDelayMinMS)
	overrideEnvFloat("LIVENESS_TEMPORAL_DELAY_MAX_MS", &cfg.TemporalDelayMaxMS)
	overrideEnvFloat("LIVENESS_SCREEN_TEXTURE_MIN", &cfg.ScreenTextureUniformityMin)
	overrideEnvFloat("LIVENESS_SCREEN_FLICKER_MAX", &cfg.ScreenFlickerRatioMax)
	overrideEnvInt("LIVENESS_SESSION_IDLE_TTL_SECONDS", &cfg.SessionIdleTTLSeconds)
	return cfg
}

// Validate fails fast on an inconsistent threshold set. A Session is never
// constructed from an invalid config.
func (cfg Config) Validate() error {
	if errs := validator.ValidatorInstance.ValidateStruct(cfg); errs != nil {
		return fmt.Errorf("invalid liveness config: %v", (*errs)[0])
	}
	if cfg.MinBPM >= cfg.MaxBPM {
		return fmt.Errorf("invalid liveness config: MinBPM %d must be below MaxBPM %d", cfg.MinBPM, cfg.MaxBPM)
	}
	if cfg.TemporalDelayMinMS >= cfg.TemporalDelayMaxMS {
		return fmt.Errorf("invalid liveness config: temporal delay window [%v, %v] is empty", cfg.TemporalDelayMinMS, cfg.TemporalDelayMaxMS)
	}
	if cfg.TemporalSearchMaxMS < cfg.TemporalDelayMaxMS {
		return fmt.Errorf("invalid liveness config: xcorr search bound %v ends before the delay window %v", cfg.TemporalSearchMaxMS, cfg.TemporalDelayMaxMS)
	}
	if float64(cfg.BufferSize)/float64(cfg.FPS) < cfg.RPPGMinWindowSeconds {
		return fmt.Errorf("invalid liveness config: buffer holds %.1fs but rPPG needs %.1fs", float64(cfg.BufferSize)/float64(cfg.FPS), cfg.RPPGMinWindowSeconds)
	}
	return nil
}

func parseEnvBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func overrideEnvInt(key string, target *int) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			*target = v
		}
	}
}

func overrideEnvFloat(key string, target *float64) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			*target = v
		}
	}
}
