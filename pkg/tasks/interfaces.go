package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer is the enqueue side of the job queue. asynq.Client
// implements it; tests substitute a capture fake.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
