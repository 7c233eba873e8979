package planRepo

import (
	"context"
	"errors"
	"log"

	"waypoint/database"
	"waypoint/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no plan document matches the id.
var ErrNotFound = errors.New("travel plan not found")

// ErrInvalidTransition is returned when the stored status cannot move to the
// requested one.
var ErrInvalidTransition = errors.New("invalid plan status transition")

// PlanRepository defines methods for travel plan data access.
type PlanRepository interface {
	// Create inserts a new plan and returns its ID.
	Create(ctx context.Context, plan *models.TravelPlan) (string, error)
	// GetByID returns a plan by its ID or ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.TravelPlan, error)
	// UpdateStatus sets the lifecycle status of a plan.
	UpdateStatus(ctx context.Context, id string, status models.PlanStatus) error
	// SaveGeneratedPlans replaces the ranked variant list of a plan.
	SaveGeneratedPlans(ctx context.Context, id string, plans []models.PlanVariant) error
	// SaveFreshRun stores the variants of a new generation run and drops the
	// selection made against the previous run.
	SaveFreshRun(ctx context.Context, id string, plans []models.PlanVariant) error
	// SetSelectedPlan stores the user-selected variant.
	SetSelectedPlan(ctx context.Context, id string, selected *models.PlanVariant) error
	// List returns plans newest first.
	List(ctx context.Context, opts models.PlanListOptions) ([]models.TravelPlan, error)
	// Update stores the editable fields of plan.
	Update(ctx context.Context, plan *models.TravelPlan) error
	// Delete removes a plan or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// DefaultListLimit caps a listing when the caller sets no limit.
const DefaultListLimit = 100

type mongoPlanRepo struct {
	coll *mongo.Collection
}

// NewMongoPlanRepo returns a new PlanRepository instance using MongoDB.
func NewMongoPlanRepo() PlanRepository {
	repo := &mongoPlanRepo{
		coll: database.Database().Collection("travel_plans"),
	}
	if err := repo.ensureIndexes(); err != nil {
		log.Printf("failed to create travel plan indexes: %v", err)
	}
	return repo
}
