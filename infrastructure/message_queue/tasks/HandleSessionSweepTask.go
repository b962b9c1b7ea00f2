package queue_tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"prism.io/infrastructure/liveness"
	"prism.io/infrastructure/logger"
	mq_types "prism.io/infrastructure/message_queue/types"
)

var HandleSessionSweepTaskName mq_types.Queues = "sweep_idle_sessions"

// Enqueue is set by the broker at startup so handlers can reschedule work
// without importing the broker.
var Enqueue func(task mq_types.QueueTask)

type SessionSweepPayload struct {
	IntervalSeconds int
	mq_types.BasePayload
}

// HandleSessionSweepTask drops sessions that stopped sending frames, then
// reschedules itself so abandoned sessions never accumulate.
func HandleSessionSweepTask(ctx context.Context, t *asynq.Task) error {
	var payload SessionSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("an error occured while unmarshalling session sweep queue payload", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return err
	}
	if payload.IntervalSeconds <= 0 {
		payload.IntervalSeconds = 60
	}

	liveness.Instance().SweepIdle()

	if Enqueue != nil {
		body, _ := json.Marshal(payload)
		Enqueue(mq_types.QueueTask{
			Name:      HandleSessionSweepTaskName,
			Payload:   body,
			Priority:  mq_types.Low,
			ProcessIn: time.Duration(payload.IntervalSeconds),
			MaxRetry:  1,
		})
	}
	return nil
}
