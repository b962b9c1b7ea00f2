package liveness

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"prism.io/application/utils"
	"prism.io/infrastructure/liveness/types"
)

// Frame rejection errors, surfaced to the caller without mutating session
// state.
var (
	ErrMissingROI            = errors.New("face or forehead ROI is missing or empty")
	ErrInvalidStimulus       = errors.New("unsupported stimulus color label")
	ErrNonMonotonicTimestamp = errors.New("frame timestamp precedes the previous frame")
	ErrSessionDecided        = errors.New("session already finalized")
)

const (
	temporalBufferCap = 120 // ~4 seconds at 30fps
	bpmHistoryCap     = 10
	rawBPMHistoryCap  = 30
	eyeBufferCap      = 30
)

// Session owns all rolling state for one verification attempt. Frames must be
// submitted one at a time in non-decreasing timestamp order; distinct
// sessions are fully independent and safe to drive concurrently.
type Session struct {
	ID        string
	CreatedAt time.Time

	cfg       Config
	extractor bvpExtractor

	mu              sync.Mutex
	state           types.SessionState
	lastTimestampMS int64
	seenFrame       bool

	rgbBuffer      *ringBuffer[rgbSample]
	greenBuffer    *ringBuffer[float64]
	temporalBuffer *ringBuffer[stimRespSample]
	bpmHistory     *ringBuffer[weightedBPM]
	rawBPMHistory  *ringBuffer[float64]
	leftEyeBuffer  *ringBuffer[types.EyeSample]
	rightEyeBuffer *ringBuffer[types.EyeSample]

	prevForehead plane
	lastSSS      *types.PhysicsReading
	lastResult   *types.LivenessResult
	lastSeen     time.Time
}

// NewSession validates the config and builds a fresh WARMUP-state session.
// Configuration problems surface here, never mid-stream.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:              utils.GenerateUULDString(),
		CreatedAt:       now,
		cfg:             cfg,
		extractor:       newBVPExtractor(cfg.RPPGMethod),
		state:           types.StateWarmup,
		rgbBuffer:       newRingBuffer[rgbSample](cfg.BufferSize),
		greenBuffer:     newRingBuffer[float64](cfg.BufferSize),
		temporalBuffer:  newRingBuffer[stimRespSample](temporalBufferCap),
		bpmHistory:      newRingBuffer[weightedBPM](bpmHistoryCap),
		rawBPMHistory:   newRingBuffer[float64](rawBPMHistoryCap),
		leftEyeBuffer:   newRingBuffer[types.EyeSample](eyeBufferCap),
		rightEyeBuffer:  newRingBuffer[types.EyeSample](eyeBufferCap),
		lastTimestampMS: math.MinInt64,
		lastSeen:        now,
	}, nil
}

// ProcessFrame runs one frame through the full pipeline and returns the
// fused result. A rejected frame mutates nothing and contributes nothing;
// the worst case for a bad frame is "this frame never happened".
func (s *Session) ProcessFrame(frame types.FrameInput) (*types.LivenessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()

	if s.state == types.StateDecided {
		return nil, ErrSessionDecided
	}
	if !frame.Stimulus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStimulus, frame.Stimulus)
	}
	if frame.FaceROI == nil || frame.ForeheadROI == nil ||
		frame.FaceROI.Bounds().Empty() || frame.ForeheadROI.Bounds().Empty() {
		return nil, ErrMissingROI
	}
	if s.seenFrame && frame.TimestampMS < s.lastTimestampMS {
		return nil, fmt.Errorf("%w: %d < %d", ErrNonMonotonicTimestamp, frame.TimestampMS, s.lastTimestampMS)
	}
	s.lastTimestampMS = frame.TimestampMS
	s.seenFrame = true

	// Quality gate over the forehead ROI; a failed frame is still fed to the
	// spoof and physics checks below.
	foreheadPlane := grayPlane(frame.ForeheadROI)
	quality := computeQualityVerdict(s.cfg, foreheadPlane, s.prevForehead)
	s.prevForehead = foreheadPlane

	if quality.Passed {
		r, g, b := meanRGB(frame.ForeheadROI)
		s.rgbBuffer.Append(rgbSample{r, g, b})
		s.greenBuffer.Append(g)
	}

	facePlane := grayPlane(frame.FaceROI)

	// Stimulus/response pair for the temporal correlation: projected stimulus
	// intensity against the face's mean reflected luminance.
	sr, sg, sb := frame.Stimulus.RGB()
	s.temporalBuffer.Append(stimRespSample{
		timestampMS: frame.TimestampMS,
		stimulus:    sr + sg + sb,
		response:    planeMean(facePlane),
	})

	if frame.LeftEye != nil {
		s.leftEyeBuffer.Append(*frame.LeftEye)
	}
	if frame.RightEye != nil {
		s.rightEyeBuffer.Append(*frame.RightEye)
	}

	rppg := types.RPPGReading{}
	if quality.Passed {
		rppg = analyzeRPPG(s.cfg, s.extractor, s.rgbBuffer.Values(), s.bpmHistory, s.rawBPMHistory)
	}

	physics := s.evaluatePhysics(frame)
	chromaPassed := evaluateChroma(s.cfg, frame.FaceROI, frame.Stimulus)
	temporal := evaluateTemporal(s.cfg, s.temporalBuffer.Values())
	spoof := evaluateSpoof(s.cfg, frame.FaceROI, facePlane, s.greenBuffer.Values())

	isHuman, confidence, details := fuse(s.cfg, fusionInput{
		Quality:       quality,
		RPPG:          rppg,
		Physics:       physics,
		ChromaPassed:  chromaPassed,
		Temporal:      temporal,
		Spoof:         spoof,
		RGBSamples:    s.rgbBuffer.Len(),
		GreenSamples:  s.greenBuffer.Len(),
		RawBPMHistory: s.rawBPMHistory.Values(),
	})

	if s.state == types.StateWarmup && s.rgbBuffer.Full() {
		s.state = types.StateActive
	}
	if s.state == types.StateWarmup {
		// Provisional diagnostics only; no decision during warmup.
		isHuman = false
		details["provisional"] = true
	}
	details["rppg_method"] = string(s.extractor.Method())
	details["state"] = string(s.state)
	details["warmup_progress"] = round3(float64(s.rgbBuffer.Len()) / float64(s.cfg.BufferSize))

	result := &types.LivenessResult{
		IsHuman:       isHuman,
		Confidence:    confidence,
		BPM:           rppg.BPM,
		SignalQuality: round3(rppg.SignalQuality),
		HRVScore:      round3(math.Min(1, rppg.HRV.Entropy/math.Log(10))),
		Details:       details,
	}
	s.lastResult = result
	return result, nil
}

// evaluatePhysics runs the frame-local probes. The subsurface reading is held
// between stimulus frames so the diagnostic stays populated across the
// palette cycle.
func (s *Session) evaluatePhysics(frame types.FrameInput) types.PhysicsReading {
	reading := types.PhysicsReading{}
	passed, ratio, redVar, blueVar := evaluateSSS(s.cfg, frame.FaceROI, frame.Stimulus)
	if ratio != nil {
		reading.SSSPassed = passed
		reading.SSSRatio = ratio
		reading.RedVariance = redVar
		reading.BlueVariance = blueVar
		held := reading
		s.lastSSS = &held
	} else if s.lastSSS != nil {
		reading = *s.lastSSS
	}

	cornealPassed, decouple, symmetry := evaluateCorneal(s.cfg, s.leftEyeBuffer.Values(), s.rightEyeBuffer.Values())
	reading.CornealPassed = cornealPassed
	reading.CornealDecouple = decouple
	reading.GlintSymmetry = symmetry
	return reading
}

// Reset clears every rolling buffer and returns the session to WARMUP. The
// session behaves identically to a freshly created one afterwards.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rgbBuffer.Clear()
	s.greenBuffer.Clear()
	s.temporalBuffer.Clear()
	s.bpmHistory.Clear()
	s.rawBPMHistory.Clear()
	s.leftEyeBuffer.Clear()
	s.rightEyeBuffer.Clear()
	s.prevForehead = plane{}
	s.lastSSS = nil
	s.lastResult = nil
	s.state = types.StateWarmup
	s.lastTimestampMS = math.MinInt64
	s.seenFrame = false
	s.lastSeen = time.Now()
}

// LastResult returns the most recent fused result, or nil before the first
// accepted frame.
func (s *Session) LastResult() *types.LivenessResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// Finalize moves the session to DECIDED and returns its closing result.
// Further frames are rejected.
func (s *Session) Finalize() *types.LivenessResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = types.StateDecided
	return s.lastResult
}

// State reports the current lifecycle phase.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IdleSince reports the time of the last frame or lifecycle call.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Method reports the rPPG projection the session was built with.
func (s *Session) Method() types.RPPGMethod {
	return s.extractor.Method()
}
