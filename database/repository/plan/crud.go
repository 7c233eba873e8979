package planRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waypoint/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoPlanRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new plan in the pending state and returns its ID.
func (r *mongoPlanRepo) Create(ctx context.Context, plan *models.TravelPlan) (string, error) {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.Status == "" {
		plan.Status = models.StatusPending
	}
	if plan.GeneratedPlans == nil {
		plan.GeneratedPlans = []models.PlanVariant{}
	}
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, plan); err != nil {
		return "", err
	}
	return plan.ID, nil
}

// GetByID returns a travel plan by its ID.
func (r *mongoPlanRepo) GetByID(ctx context.Context, id string) (*models.TravelPlan, error) {
	var plan models.TravelPlan
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&plan)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdateStatus moves the plan to status when the lifecycle allows it from
// the stored status.
func (r *mongoPlanRepo) UpdateStatus(ctx context.Context, id string, status models.PlanStatus) error {
	filter := bson.M{"id": id, "status": bson.M{"$in": models.TransitionSources(status)}}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	count, err := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return fmt.Errorf("%w: to %s", ErrInvalidTransition, status)
}

// SaveGeneratedPlans replaces the generated variant list.
func (r *mongoPlanRepo) SaveGeneratedPlans(ctx context.Context, id string, plans []models.PlanVariant) error {
	if plans == nil {
		plans = []models.PlanVariant{}
	}
	return r.set(ctx, id, bson.M{"generatedPlans": plans})
}

// SaveFreshRun replaces the variant list and unsets the previous selection.
func (r *mongoPlanRepo) SaveFreshRun(ctx context.Context, id string, plans []models.PlanVariant) error {
	if plans == nil {
		plans = []models.PlanVariant{}
	}
	update := bson.M{
		"$set":   bson.M{"generatedPlans": plans, "updatedAt": time.Now()},
		"$unset": bson.M{"selectedPlan": ""},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSelectedPlan stores the selected variant.
func (r *mongoPlanRepo) SetSelectedPlan(ctx context.Context, id string, selected *models.PlanVariant) error {
	return r.set(ctx, id, bson.M{"selectedPlan": selected})
}

// List returns the plans matching opts, newest first.
func (r *mongoPlanRepo) List(ctx context.Context, opts models.PlanListOptions) ([]models.TravelPlan, error) {
	filter := bson.M{}
	if opts.UserID != "" {
		filter["userId"] = opts.UserID
	}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(opts.Skip).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []models.TravelPlan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update writes the user-editable fields of plan.
func (r *mongoPlanRepo) Update(ctx context.Context, plan *models.TravelPlan) error {
	return r.set(ctx, plan.ID, bson.M{
		"title":        plan.Title,
		"description":  plan.Description,
		"destination":  plan.Destination,
		"startDate":    plan.StartDate,
		"endDate":      plan.EndDate,
		"durationDays": plan.DurationDays,
		"budget":       plan.Budget,
		"preferences":  plan.Preferences,
		"requirements": plan.Requirements,
	})
}

// Delete removes the plan document.
func (r *mongoPlanRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoPlanRepo) set(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
