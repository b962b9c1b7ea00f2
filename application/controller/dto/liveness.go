package dto

// CreateSessionRequest opens a verification session. All knobs are optional;
// unset fields fall back to the service-wide configuration.
type CreateSessionRequest struct {
	RPPGMethod *string `json:"rppg_method" validate:"omitempty,rppg_method"`
	Strict     *bool   `json:"strict"`
	FPS        *int    `json:"fps" validate:"omitempty,gt=0,lte=120"`
}

// EyeSampleDTO carries one eye's pupil center and corneal glint position in
// face-ROI pixel coordinates, as located by the caller's face tracker.
type EyeSampleDTO struct {
	PupilX float64 `json:"pupil_x"`
	PupilY float64 `json:"pupil_y"`
	GlintX float64 `json:"glint_x"`
	GlintY float64 `json:"glint_y"`
}

// SubmitFrameRequest carries one captured frame. Images are base64 encoded,
// optionally as data URLs.
type SubmitFrameRequest struct {
	FaceImage     string        `json:"face_image" validate:"required"`
	ForeheadImage string        `json:"forehead_image" validate:"required"`
	Stimulus      string        `json:"stimulus" validate:"required,stimulus_color"`
	TimestampMS   int64         `json:"timestamp_ms" validate:"gte=0"`
	LeftEye       *EyeSampleDTO `json:"left_eye"`
	RightEye      *EyeSampleDTO `json:"right_eye"`
}

// SessionResponse is the session-creation reply body.
type SessionResponse struct {
	SessionID  string `json:"session_id"`
	State      string `json:"state"`
	RPPGMethod string `json:"rppg_method"`
}
