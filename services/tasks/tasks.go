package tasks

import (
	"encoding/json"
	"errors"
	"time"

	"waypoint/models"

	"github.com/hibiken/asynq"
)

const (
	TypeGeneratePlan = "plan:generate"
	TypeCacheSweep   = "cache:sweep"
	TypeDataRefresh  = "data:refresh"
)

// generationTimeout bounds one generation run, detailing calls included.
const generationTimeout = 10 * time.Minute

// NewGeneratePlanTask builds the generation task of a plan. Generation is
// not retried: a failed run is visible through the plan status and the user
// triggers a new one.
func NewGeneratePlanTask(payload models.GeneratePlanPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeGeneratePlan, b)
	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Timeout(generationTimeout),
		asynq.Queue("critical"),
	}
	return task, opts, nil
}

// NewCacheSweepTask builds a cache eviction task for the given domains.
func NewCacheSweepTask(payload models.SweepPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCacheSweep, b, asynq.MaxRetry(2)), nil
}

// RefreshQueue is the queue data refresh tasks run on.
const RefreshQueue = "default"

// refreshRetention keeps finished refresh tasks inspectable.
const refreshRetention = time.Hour

// NewDataRefreshTask builds a destination data refresh task.
func NewDataRefreshTask(payload models.RefreshPayload) (*asynq.Task, error) {
	if len(payload.Destinations) == 0 {
		return nil, errors.New("refresh task needs at least one destination")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDataRefresh, b,
		asynq.MaxRetry(2),
		asynq.Queue(RefreshQueue),
		asynq.Retention(refreshRetention),
	), nil
}
