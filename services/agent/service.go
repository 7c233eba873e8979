package agent

import (
	planRepo "waypoint/database/repository/plan"
	"waypoint/services/planning"
	"waypoint/services/processor"
	"waypoint/services/scorer"
	"waypoint/utils"

	"go.uber.org/zap"
)

// NewAgentService wires the generation pipeline. A nil scorer uses
// DefaultScorer and a nil logger the global one.
func NewAgentService(
	repo planRepo.PlanRepository,
	collector Collector,
	proc *processor.DataProcessor,
	generator *planning.PlanGenerator,
	sc scorer.Scorer,
	detailer *planning.Detailer,
	logger *zap.Logger,
) *DefaultAgentService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if sc == nil {
		sc = scorer.DefaultScorer{}
	}
	if proc == nil {
		proc = processor.NewDataProcessor(logger)
	}
	return &DefaultAgentService{
		Repo:      repo,
		Collector: collector,
		Processor: proc,
		Generator: generator,
		Scorer:    sc,
		Detailer:  detailer,
		Logger:    logger,
	}
}
