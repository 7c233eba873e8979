package cron

import (
	"waypoint/config"
	"waypoint/models"
	"waypoint/services/tasks"
	"waypoint/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// sweptDomains are evicted on every sweep. Their data goes stale fastest.
var sweptDomains = []models.Domain{models.DomainFlights, models.DomainHotels, models.DomainWeather}

// InitScheduler registers the periodic maintenance tasks and starts the
// scheduler in the background.
func InitScheduler(redisOpt asynq.RedisClientOpt) (*asynq.Scheduler, error) {
	logger := utils.GetLogger()
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})

	sweep, err := tasks.NewCacheSweepTask(models.SweepPayload{Domains: sweptDomains})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(config.AppConfig.CacheSweepCron, sweep, asynq.Queue("low")); err != nil {
		return nil, err
	}

	if len(config.AppConfig.PopularDestinations) > 0 {
		refresh, err := tasks.NewDataRefreshTask(models.RefreshPayload{Destinations: config.AppConfig.PopularDestinations})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(config.AppConfig.DataRefreshCron, refresh, asynq.Queue("low")); err != nil {
			return nil, err
		}
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()
	logger.Info("maintenance scheduler started",
		zap.String("cache_sweep", config.AppConfig.CacheSweepCron),
		zap.String("data_refresh", config.AppConfig.DataRefreshCron),
	)
	return scheduler, nil
}
