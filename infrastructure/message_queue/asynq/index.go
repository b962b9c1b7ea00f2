package asynq

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hibiken/asynq"

	queue_tasks "prism.io/infrastructure/message_queue/tasks"
	mq_types "prism.io/infrastructure/message_queue/types"
)

type AsynqBroker struct {
	Client *asynq.Client
}

func (aq *AsynqBroker) Start() {
	redisConnOpt := asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}

	aq.Client = asynq.NewClient(redisConnOpt)
	queue_tasks.Enqueue = aq.Enqueue

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD")},
		asynq.Config{
			Concurrency: 100,
			Queues: map[string]int{
				string(mq_types.High):   7,
				string(mq_types.Medium): 2,
				string(mq_types.Low):    1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(string(queue_tasks.HandlePersistAttemptTaskName), queue_tasks.HandlePersistAttemptTask)
	mux.HandleFunc(string(queue_tasks.HandleSessionSweepTaskName), queue_tasks.HandleSessionSweepTask)

	aq.scheduleSessionSweep()

	srv.Run(mux)
}

func (aq *AsynqBroker) Enqueue(task mq_types.QueueTask) {
	if task.TimeOut == 0 {
		task.TimeOut = 60
	}
	aq.Client.Enqueue(asynq.NewTask(string(task.Name), task.Payload),
		asynq.ProcessIn(time.Duration(task.ProcessIn)*time.Second),
		asynq.MaxRetry(task.MaxRetry),
		asynq.Timeout(time.Second*time.Duration(task.TimeOut)),
		asynq.Queue(string(task.Priority)))
}

// scheduleSessionSweep kicks off the self-rescheduling idle-session sweep.
func (aq *AsynqBroker) scheduleSessionSweep() {
	payload, _ := json.Marshal(queue_tasks.SessionSweepPayload{IntervalSeconds: 60})
	aq.Enqueue(mq_types.QueueTask{
		Name:      queue_tasks.HandleSessionSweepTaskName,
		Payload:   payload,
		Priority:  mq_types.Low,
		ProcessIn: 60,
		MaxRetry:  1,
	})
}
