package types

import "image"

// StimulusColor is the color currently displayed on the caller's screen while
// the frame was captured. NONE means no active stimulus.
type StimulusColor string

const (
	StimulusRed   StimulusColor = "RED"
	StimulusGreen StimulusColor = "GREEN"
	StimulusBlue  StimulusColor = "BLUE"
	StimulusWhite StimulusColor = "WHITE"
	StimulusNone  StimulusColor = "NONE"
)

// RGB returns the unit RGB encoding of the stimulus used for the temporal
// response correlation. NONE encodes as black.
func (c StimulusColor) RGB() (float64, float64, float64) {
	switch c {
	case StimulusRed:
		return 1, 0, 0
	case StimulusGreen:
		return 0, 1, 0
	case StimulusBlue:
		return 0, 0, 1
	case StimulusWhite:
		return 1, 1, 1
	}
	return 0, 0, 0
}

func (c StimulusColor) Valid() bool {
	switch c {
	case StimulusRed, StimulusGreen, StimulusBlue, StimulusWhite, StimulusNone:
		return true
	}
	return false
}

// RPPGMethod selects how the RGB trace is projected into a pulse waveform.
type RPPGMethod string

const (
	MethodGreen RPPGMethod = "GREEN"
	MethodChrom RPPGMethod = "CHROM"
	MethodPOS   RPPGMethod = "POS"
)

func (m RPPGMethod) Valid() bool {
	switch m {
	case MethodGreen, MethodChrom, MethodPOS:
		return true
	}
	return false
}

// SessionState is the per-session decision lifecycle.
type SessionState string

const (
	StateWarmup  SessionState = "WARMUP"
	StateActive  SessionState = "ACTIVE"
	StateDecided SessionState = "DECIDED"
)

// EyeSample carries the pupil center and corneal glint position for one eye,
// as located by the external face locator, in face-ROI pixel coordinates.
type EyeSample struct {
	PupilX float64 `json:"pupil_x"`
	PupilY float64 `json:"pupil_y"`
	GlintX float64 `json:"glint_x"`
	GlintY float64 `json:"glint_y"`
}

// FrameInput is a single captured frame. Transient; the session only keeps
// what its rolling buffers extract from it.
type FrameInput struct {
	FaceROI     image.Image
	ForeheadROI image.Image
	Stimulus    StimulusColor
	TimestampMS int64
	LeftEye     *EyeSample
	RightEye    *EyeSample
}

// QualityVerdict is the per-frame quality gate outcome. A failed frame does
// not feed the rPPG buffer but still reaches the spoof and physics checks.
type QualityVerdict struct {
	Passed bool
	Reason string

	MotionScore     float64
	BlurVariance    float64
	ExposureClipPct float64
	ROIMinDim       float64
}

// Quality gate reason codes.
const (
	QualityPass          = "pass"
	QualityDisabled      = "disabled"
	QualityROIMissing    = "roi_missing"
	QualityROITooSmall   = "roi_too_small"
	QualityTooBlurry     = "too_blurry"
	QualityBadExposure   = "bad_exposure"
	QualityTooMuchMotion = "too_much_motion"
)

// HRVMetrics captures beat-to-beat irregularity of the recovered pulse.
type HRVMetrics struct {
	RMSSD   float64
	SDNN    float64
	Entropy float64
	Valid   bool
}

// RPPGReading is the cardiac estimate derived from the rolling RGB buffer.
// BPM is nil until the buffer holds enough samples for a defensible estimate.
type RPPGReading struct {
	BPM           *int
	SignalQuality float64
	PeakSNR       float64
	Valid         bool
	HRV           HRVMetrics
}

// PhysicsReading holds the frame-local physical probe outcomes. Pointer
// fields are nil when the probe could not be evaluated on this frame.
type PhysicsReading struct {
	SSSPassed    bool
	SSSRatio     *float64
	RedVariance  float64
	BlueVariance float64

	CornealPassed   *bool
	CornealDecouple float64
	GlintSymmetry   float64
}

// TemporalReading is the stimulus/response cross-correlation outcome.
type TemporalReading struct {
	Evaluated bool
	Passed    bool
	Strength  float64
	DelayMS   float64
}

// SpoofReading aggregates the screen/replay detection signals.
type SpoofReading struct {
	ScreenTextureDetected bool
	TextureUniformity     float64
	TextureEvaluated      bool

	ScreenFlickerDetected bool
	ScreenFlickerRatio    float64

	MoireDetected bool
	MoireScore    float64

	IsStatic         bool
	StaticEvaluated  bool
	SignalVariance   float64
	LightingUnstable bool
}

// Forced-false reason codes emitted by the hard gates.
const (
	ForcedFalseScreenTexture = "screen_texture_detected"
	ForcedFalseStaticImage   = "static_image_low_variance"
)

// LivenessResult is the stable top-level verdict shape. New diagnostics are
// only ever added under Details.
type LivenessResult struct {
	IsHuman       bool           `json:"is_human"`
	Confidence    float64        `json:"confidence"`
	BPM           *int           `json:"bpm"`
	SignalQuality float64        `json:"signal_quality"`
	HRVScore      float64        `json:"hrv_score"`
	Details       map[string]any `json:"details"`
}
