package agent

import (
	"context"

	planRepo "waypoint/database/repository/plan"
	"waypoint/models"
	"waypoint/services/planning"
	"waypoint/services/processor"
	"waypoint/services/scorer"

	"go.uber.org/zap"
)

// AgentService drives plan generation and the operations on its results.
type AgentService interface {
	// GenerateTravelPlans runs collect, process, generate, score and persist
	// for a plan and keeps its status current. Requirements overlay the
	// preferences, and a new run clears the previous selection.
	GenerateTravelPlans(ctx context.Context, planID string, preferences, requirements map[string]interface{}) error
	// RefinePlan applies refinements to one generated variant and stores it.
	RefinePlan(ctx context.Context, planID string, index int, refinements map[string]interface{}) (*models.PlanVariant, error)
	// SelectPlan stores the variant at index as the user's choice.
	SelectPlan(ctx context.Context, planID string, index int) (*models.PlanVariant, error)
	// Recommendations returns the travel advice of a plan.
	Recommendations(ctx context.Context, planID string) ([]models.Recommendation, error)
}

// Collector is the data collection step of a generation run.
type Collector interface {
	CollectAll(ctx context.Context, req models.CollectionRequest) (models.CollectedData, models.CollectionReport)
}

// DefaultAgentService is the production implementation.
type DefaultAgentService struct {
	Repo      planRepo.PlanRepository
	Collector Collector
	Processor *processor.DataProcessor
	Generator *planning.PlanGenerator
	Scorer    scorer.Scorer
	Detailer  *planning.Detailer
	Logger    *zap.Logger
}
