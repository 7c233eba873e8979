package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"

	planRepo "waypoint/database/repository/plan"
	"waypoint/models"
	"waypoint/services/planning"

	"go.uber.org/zap"
)

func (s *DefaultAgentService) GenerateTravelPlans(ctx context.Context, planID string, preferences, requirements map[string]interface{}) error {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return err
	}
	logger := s.Logger.With(zap.String("plan_id", planID))

	if err := s.Repo.UpdateStatus(ctx, planID, models.StatusGenerating); err != nil {
		return fmt.Errorf("failed to mark plan generating: %w", err)
	}
	logger.Info("plan generation started", zap.String("destination", plan.Destination))

	requirements = mergePreferences(plan.Requirements, requirements)
	inputs := mergePreferences(mergePreferences(plan.Preferences, preferences), requirements)
	if err := s.runPipeline(ctx, plan, inputs, requirements, logger); err != nil {
		logger.Error("plan generation failed", zap.Error(err))
		if statusErr := s.Repo.UpdateStatus(ctx, planID, models.StatusFailed); statusErr != nil {
			logger.Error("failed to mark plan failed", zap.Error(statusErr))
		}
		return err
	}

	if err := s.Repo.UpdateStatus(ctx, planID, models.StatusCompleted); err != nil {
		return fmt.Errorf("failed to mark plan completed: %w", err)
	}
	logger.Info("plan generation completed")
	return nil
}

// runPipeline produces and persists the ranked variants. Nothing is saved
// unless every step succeeds. Requirements are already folded into
// preferences; a budget requirement also replaces the trip budget.
func (s *DefaultAgentService) runPipeline(ctx context.Context, plan *models.TravelPlan, preferences, requirements map[string]interface{}, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()

	data, report := s.Collector.CollectAll(ctx, plan.CollectionRequest())
	logger.Debug("collection report", zap.Any("report", report))

	processed := s.Processor.Process(data)
	trip := plan.Trip()
	if budget, ok := models.Record(requirements).Float("budget"); ok && budget > 0 {
		trip.Budget = budget
	}

	variants := s.Generator.GeneratePlans(processed, trip, preferences)
	if len(variants) == 0 {
		return errors.New("generator produced no variants")
	}

	for i := range variants {
		score, err := s.Scorer.Score(ctx, variants[i], trip, preferences)
		if err != nil {
			return fmt.Errorf("failed to score %s: %w", variants[i].ID, err)
		}
		variants[i].Score = score
	}
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Score > variants[j].Score
	})

	if s.Detailer != nil {
		s.Detailer.Detail(ctx, variants, processed, trip)
	}

	if err := s.Repo.SaveFreshRun(ctx, plan.ID, variants); err != nil {
		return fmt.Errorf("failed to save generated plans: %w", err)
	}
	logger.Info("generated plans saved", zap.Int("variants", len(variants)), zap.Float64("top_score", variants[0].Score))
	return nil
}

func (s *DefaultAgentService) RefinePlan(ctx context.Context, planID string, index int, refinements map[string]interface{}) (*models.PlanVariant, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(plan, index); err != nil {
		return nil, err
	}

	refined := s.Generator.RefinePlan(plan.GeneratedPlans[index], refinements)
	variants := append([]models.PlanVariant(nil), plan.GeneratedPlans...)
	variants[index] = refined
	if err := s.Repo.SaveGeneratedPlans(ctx, planID, variants); err != nil {
		return nil, fmt.Errorf("failed to save refined plan: %w", err)
	}
	if plan.SelectedPlan != nil && plan.SelectedPlan.ID == refined.ID {
		if err := s.Repo.SetSelectedPlan(ctx, planID, &refined); err != nil {
			return nil, fmt.Errorf("failed to update selected plan: %w", err)
		}
	}
	s.Logger.Info("plan refined", zap.String("plan_id", planID), zap.Int("index", index), zap.Any("refinements", refinements))
	return &refined, nil
}

func (s *DefaultAgentService) SelectPlan(ctx context.Context, planID string, index int) (*models.PlanVariant, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(plan, index); err != nil {
		return nil, err
	}
	selected := plan.GeneratedPlans[index]
	if err := s.Repo.SetSelectedPlan(ctx, planID, &selected); err != nil {
		return nil, fmt.Errorf("failed to select plan: %w", err)
	}
	s.Logger.Info("plan selected", zap.String("plan_id", planID), zap.String("variant", selected.ID))
	return &selected, nil
}

func (s *DefaultAgentService) Recommendations(ctx context.Context, planID string) ([]models.Recommendation, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return planning.GenerateRecommendations(plan.Trip()), nil
}

func (s *DefaultAgentService) loadPlan(ctx context.Context, planID string) (*models.TravelPlan, error) {
	plan, err := s.Repo.GetByID(ctx, planID)
	if errors.Is(err, planRepo.ErrNotFound) {
		return nil, newPlanNotFound(planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan, nil
}

func checkIndex(plan *models.TravelPlan, index int) error {
	if len(plan.GeneratedPlans) == 0 {
		return ErrNoGeneratedPlans
	}
	if index < 0 || index >= len(plan.GeneratedPlans) {
		return newIndexOutOfRange(index, len(plan.GeneratedPlans))
	}
	return nil
}

// mergePreferences overlays override on stored without touching either.
func mergePreferences(stored, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(stored)+len(override))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
