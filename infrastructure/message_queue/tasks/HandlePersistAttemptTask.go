package queue_tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"prism.io/application/repository"
	"prism.io/entities"
	"prism.io/infrastructure/database/repository/mongo"
	"prism.io/infrastructure/logger"
	mq_types "prism.io/infrastructure/message_queue/types"
)

var HandlePersistAttemptTaskName mq_types.Queues = "persist_verification_attempt"

type PersistAttemptPayload struct {
	Attempt entities.VerificationAttempt
	mq_types.BasePayload
}

// HandlePersistAttemptTask writes a finished session's verdict to the
// datastore. Runs off the request path so a slow write never blocks the
// caller ending a session.
func HandlePersistAttemptTask(ctx context.Context, t *asynq.Task) error {
	var payload PersistAttemptPayload
	err := json.Unmarshal(t.Payload(), &payload)
	if err != nil {
		logger.Error("an error occured while unmarshalling persist attempt queue payload", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return err
	}

	attemptRepo := repository.VerificationAttemptRepo()
	_, err = attemptRepo.CreateOne(payload.Attempt)
	if err != nil {
		if err == mongo.ErrModelUnavailable {
			// No datastore configured; nothing to retry into.
			logger.Warning("verification attempt dropped, datastore not configured", logger.LoggerOptions{
				Key:  "sessionID",
				Data: payload.Attempt.SessionID,
			})
			return asynq.SkipRetry
		}
		logger.Error("an error occured while persisting verification attempt", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "sessionID",
			Data: payload.Attempt.SessionID,
		})
		return err
	}

	logger.Info("verification attempt persisted", logger.LoggerOptions{
		Key:  "sessionID",
		Data: payload.Attempt.SessionID,
	})
	return nil
}
