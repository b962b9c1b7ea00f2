package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "prism.io/application/appErrors"
	"prism.io/application/constants"
	"prism.io/application/controller/dto"
	"prism.io/application/interfaces"
	"prism.io/application/utils"
	"prism.io/entities"
	"prism.io/infrastructure/database/repository/cache"
	"prism.io/infrastructure/liveness"
	"prism.io/infrastructure/liveness/types"
	"prism.io/infrastructure/logger"
	messagequeue "prism.io/infrastructure/message_queue"
	queue_tasks "prism.io/infrastructure/message_queue/tasks"
	mq_types "prism.io/infrastructure/message_queue/types"
	server_response "prism.io/infrastructure/serverResponse"
	"prism.io/infrastructure/validator"
)

// CreateLivenessSession opens a new verification session.
func CreateLivenessSession(ctx *interfaces.ApplicationContext[dto.CreateSessionRequest]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}

	overrides := liveness.SessionOverrides{
		Strict: ctx.Body.Strict,
		FPS:    ctx.Body.FPS,
	}
	if ctx.Body.RPPGMethod != nil {
		method := types.RPPGMethod(strings.ToUpper(*ctx.Body.RPPGMethod))
		overrides.RPPGMethod = &method
	}

	session, err := liveness.Instance().CreateSession(overrides)
	if err != nil {
		apperrors.ClientError(ctx.Ctx, err.Error(), nil)
		return
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusCreated, "liveness session created", dto.SessionResponse{
		SessionID:  session.ID,
		State:      string(session.State()),
		RPPGMethod: string(session.Method()),
	}, nil)
}

// SubmitFrame feeds one captured frame into the session and returns the
// fused verdict as it stands.
func SubmitFrame(ctx *interfaces.ApplicationContext[dto.SubmitFrameRequest]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}

	sessionID := ctx.Ctx.Param("sessionID")
	session, err := liveness.Instance().GetSession(sessionID)
	if err != nil {
		apperrors.NotFoundError(ctx.Ctx, "session not found")
		return
	}

	faceROI, err := utils.DecodeBase64Image(ctx.Body.FaceImage)
	if err != nil {
		apperrors.ClientError(ctx.Ctx, "invalid face image format", nil)
		return
	}
	foreheadROI, err := utils.DecodeBase64Image(ctx.Body.ForeheadImage)
	if err != nil {
		apperrors.ClientError(ctx.Ctx, "invalid forehead image format", nil)
		return
	}

	frame := types.FrameInput{
		FaceROI:     faceROI,
		ForeheadROI: foreheadROI,
		Stimulus:    types.StimulusColor(strings.ToUpper(ctx.Body.Stimulus)),
		TimestampMS: ctx.Body.TimestampMS,
		LeftEye:     parseEyeSample(ctx.Body.LeftEye),
		RightEye:    parseEyeSample(ctx.Body.RightEye),
	}

	result, err := session.ProcessFrame(frame)
	if err != nil {
		if errors.Is(err, liveness.ErrSessionDecided) {
			apperrors.ClientError(ctx.Ctx, "session has already been finalized", nil)
			return
		}
		apperrors.ClientError(ctx.Ctx, err.Error(), nil)
		return
	}

	cacheResult(sessionID, result)
	cache.Cache.IncrementField(fmt.Sprintf("%s-%s", constants.LIVENESS_FRAME_COUNT_KEY_PREFIX, sessionID), 1)

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "frame processed", result, nil)
}

// GetSessionResult returns the most recent verdict for a session. Recently
// ended sessions are served from cache.
func GetSessionResult(ctx *interfaces.ApplicationContext[any]) {
	sessionID := ctx.Ctx.Param("sessionID")

	session, err := liveness.Instance().GetSession(sessionID)
	if err == nil {
		result := session.LastResult()
		if result == nil {
			apperrors.NotFoundError(ctx.Ctx, "no frames have been analyzed yet")
			return
		}
		server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "liveness result", result, nil)
		return
	}

	cached := cache.Cache.FindOne(fmt.Sprintf("%s-%s", constants.LIVENESS_RESULT_KEY_PREFIX, sessionID))
	if cached == nil {
		apperrors.NotFoundError(ctx.Ctx, "session not found")
		return
	}
	var result types.LivenessResult
	if err := json.Unmarshal([]byte(*cached), &result); err != nil {
		apperrors.UnknownError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "liveness result", result, nil)
}

// ResetSession clears all rolling state so the caller can retry a challenge
// without re-negotiating a session.
func ResetSession(ctx *interfaces.ApplicationContext[any]) {
	sessionID := ctx.Ctx.Param("sessionID")
	session, err := liveness.Instance().GetSession(sessionID)
	if err != nil {
		apperrors.NotFoundError(ctx.Ctx, "session not found")
		return
	}

	session.Reset()
	cache.Cache.DeleteOne(fmt.Sprintf("%s-%s", constants.LIVENESS_RESULT_KEY_PREFIX, sessionID))

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "session reset", dto.SessionResponse{
		SessionID:  session.ID,
		State:      string(session.State()),
		RPPGMethod: string(session.Method()),
	}, nil)
}

// EndLivenessSession finalizes the session, returns the closing verdict and
// queues it for persistence.
func EndLivenessSession(ctx *interfaces.ApplicationContext[any]) {
	sessionID := ctx.Ctx.Param("sessionID")
	session, err := liveness.Instance().GetSession(sessionID)
	if err != nil {
		apperrors.NotFoundError(ctx.Ctx, "session not found")
		return
	}
	method := session.Method()

	result, err := liveness.Instance().EndSession(sessionID)
	if err != nil {
		apperrors.NotFoundError(ctx.Ctx, "session not found")
		return
	}

	if result != nil {
		cacheResult(sessionID, result)
		enqueuePersistAttempt(sessionID, ctx.DeviceID, string(method), result)
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "session ended", result, nil)
}

func parseEyeSample(sample *dto.EyeSampleDTO) *types.EyeSample {
	if sample == nil {
		return nil
	}
	return &types.EyeSample{
		PupilX: sample.PupilX,
		PupilY: sample.PupilY,
		GlintX: sample.GlintX,
		GlintY: sample.GlintY,
	}
}

func cacheResult(sessionID string, result *types.LivenessResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	cache.Cache.CreateEntry(fmt.Sprintf("%s-%s", constants.LIVENESS_RESULT_KEY_PREFIX, sessionID), payload, constants.LIVENESS_RESULT_TTL)
}

func enqueuePersistAttempt(sessionID, deviceID, method string, result *types.LivenessResult) {
	payload, err := json.Marshal(queue_tasks.PersistAttemptPayload{
		Attempt: entities.VerificationAttempt{
			SessionID:     sessionID,
			DeviceID:      deviceID,
			IsHuman:       result.IsHuman,
			Confidence:    result.Confidence,
			BPM:           result.BPM,
			SignalQuality: result.SignalQuality,
			HRVScore:      result.HRVScore,
			RPPGMethod:    method,
			State:         string(types.StateDecided),
			Details:       result.Details,
		},
	})
	if err != nil {
		logger.Error("an error occured while marshalling persist attempt payload", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return
	}
	messagequeue.TaskQueue.Enqueue(mq_types.QueueTask{
		Name:     queue_tasks.HandlePersistAttemptTaskName,
		Payload:  payload,
		Priority: mq_types.Medium,
		MaxRetry: 5,
	})
}
