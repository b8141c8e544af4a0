package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCompletionRetry = "reportback.completion_retry"

// CompletionRetryPayload identifies the conversation whose completion
// sequence should be re-run.
type CompletionRetryPayload struct {
	Phone    string `json:"phone"`
	Campaign string `json:"campaign"`
	Attempt  int    `json:"attempt"`
}

func NewCompletionRetryTask(payload CompletionRetryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCompletionRetry, data), nil
}

func ParseCompletionRetryPayload(task *asynq.Task) (CompletionRetryPayload, error) {
	var payload CompletionRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CompletionRetryPayload{}, err
	}
	return payload, nil
}
