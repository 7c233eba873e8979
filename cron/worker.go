package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"waypoint/models"
	"waypoint/services/agent"
	"waypoint/services/tasks"
	"waypoint/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Maintainer is the cache upkeep surface of the data collector.
type Maintainer interface {
	ClearDomainCache(ctx context.Context, domains ...models.Domain) (int, error)
	RefreshDestination(ctx context.Context, destination string) models.CollectionReport
}

// InitPlanWorker runs the background worker for generation and maintenance
// tasks. It returns the server so the caller can shut it down.
func InitPlanWorker(redisOpt asynq.RedisClientOpt, agentSvc agent.AgentService, maintainer Maintainer) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := NewTaskMux(agentSvc, maintainer)

	go monitorRedisConnection(redisOpt)

	go func() {
		logger.Info("starting background worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				break
			}
			logger.Error("worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err),
			)
			if attempts == maxAttempts {
				logger.Fatal("worker max retry attempts reached")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// NewTaskMux routes every background task type to its handler.
func NewTaskMux(agentSvc agent.AgentService, maintainer Maintainer) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeGeneratePlan, handleGeneratePlanTask(agentSvc))
	mux.HandleFunc(tasks.TypeCacheSweep, handleCacheSweepTask(maintainer))
	mux.HandleFunc(tasks.TypeDataRefresh, handleDataRefreshTask(maintainer))
	return mux
}

// handleGeneratePlanTask runs one generation. Failures are terminal: the
// plan status already reports them.
func handleGeneratePlanTask(agentSvc agent.AgentService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()
		var p models.GeneratePlanPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid generate payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		err := agentSvc.GenerateTravelPlans(ctx, p.PlanID, p.Preferences, p.Requirements)
		if errors.Is(err, agent.ErrPlanNotFound) {
			logger.Warn("generate task for missing plan", zap.String("plan_id", p.PlanID))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return nil
	}
}

func handleCacheSweepTask(maintainer Maintainer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.SweepPayload
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &p); err != nil {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
		}
		evicted, err := maintainer.ClearDomainCache(ctx, p.Domains...)
		if err != nil {
			return err
		}
		utils.GetLogger().Info("cache sweep finished", zap.Int("evicted", evicted))
		return nil
	}
}

func handleDataRefreshTask(maintainer Maintainer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.RefreshPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		reports := make(map[string]models.CollectionReport, len(p.Destinations))
		for _, destination := range p.Destinations {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[destination] = maintainer.RefreshDestination(ctx, destination)
		}
		// tasks built outside a server have no result writer
		if w := task.ResultWriter(); w != nil {
			b, err := json.Marshal(reports)
			if err != nil {
				return err
			}
			if _, err := w.Write(b); err != nil {
				utils.GetLogger().Warn("failed to store refresh result", zap.Error(err))
			}
		}
		return nil
	}
}

// monitorRedisConnection pings the queue Redis periodically to detect
// failures at runtime.
func monitorRedisConnection(opt asynq.RedisClientOpt) {
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	logger := utils.GetLogger()
	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("queue redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
