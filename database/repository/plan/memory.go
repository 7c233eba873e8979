package planRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"waypoint/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// memoryPlanRepo keeps plans in process, encoded the way the Mongo repository
// stores them, so callers never share memory with the store.
type memoryPlanRepo struct {
	mu    sync.RWMutex
	plans map[string][]byte
}

// NewMemoryPlanRepo returns a PlanRepository backed by a map.
func NewMemoryPlanRepo() PlanRepository {
	return &memoryPlanRepo{plans: make(map[string][]byte)}
}

func (r *memoryPlanRepo) Create(ctx context.Context, plan *models.TravelPlan) (string, error) {
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

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plans[plan.ID]; exists {
		return "", fmt.Errorf("travel plan %s already exists", plan.ID)
	}
	return plan.ID, r.store(plan)
}

func (r *memoryPlanRepo) GetByID(ctx context.Context, id string) (*models.TravelPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(id)
}

func (r *memoryPlanRepo) UpdateStatus(ctx context.Context, id string, status models.PlanStatus) error {
	return r.update(id, func(p *models.TravelPlan) error {
		if !p.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, p.Status, status)
		}
		p.Status = status
		return nil
	})
}

func (r *memoryPlanRepo) SaveGeneratedPlans(ctx context.Context, id string, plans []models.PlanVariant) error {
	return r.update(id, func(p *models.TravelPlan) error {
		p.GeneratedPlans = plans
		if p.GeneratedPlans == nil {
			p.GeneratedPlans = []models.PlanVariant{}
		}
		return nil
	})
}

func (r *memoryPlanRepo) SaveFreshRun(ctx context.Context, id string, plans []models.PlanVariant) error {
	return r.update(id, func(p *models.TravelPlan) error {
		p.GeneratedPlans = plans
		if p.GeneratedPlans == nil {
			p.GeneratedPlans = []models.PlanVariant{}
		}
		p.SelectedPlan = nil
		return nil
	})
}

func (r *memoryPlanRepo) SetSelectedPlan(ctx context.Context, id string, selected *models.PlanVariant) error {
	return r.update(id, func(p *models.TravelPlan) error {
		p.SelectedPlan = selected
		return nil
	})
}

func (r *memoryPlanRepo) List(ctx context.Context, opts models.PlanListOptions) ([]models.TravelPlan, error) {
	r.mu.RLock()
	var matched []models.TravelPlan
	for id := range r.plans {
		plan, err := r.load(id)
		if err != nil {
			r.mu.RUnlock()
			return nil, err
		}
		if opts.UserID != "" && plan.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && plan.Status != opts.Status {
			continue
		}
		matched = append(matched, *plan)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}
	plans := []models.TravelPlan{}
	for i := skip; i < int64(len(matched)) && int64(len(plans)) < limit; i++ {
		plans = append(plans, matched[i])
	}
	return plans, nil
}

func (r *memoryPlanRepo) Update(ctx context.Context, plan *models.TravelPlan) error {
	return r.update(plan.ID, func(p *models.TravelPlan) error {
		p.Title = plan.Title
		p.Description = plan.Description
		p.Destination = plan.Destination
		p.StartDate = plan.StartDate
		p.EndDate = plan.EndDate
		p.DurationDays = plan.DurationDays
		p.Budget = plan.Budget
		p.Preferences = plan.Preferences
		p.Requirements = plan.Requirements
		return nil
	})
}

func (r *memoryPlanRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *memoryPlanRepo) update(id string, fn func(*models.TravelPlan) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, err := r.load(id)
	if err != nil {
		return err
	}
	if err := fn(plan); err != nil {
		return err
	}
	plan.UpdatedAt = time.Now()
	return r.store(plan)
}

func (r *memoryPlanRepo) load(id string) (*models.TravelPlan, error) {
	raw, ok := r.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return nil, err
	}
	dec.DefaultDocumentM()
	var plan models.TravelPlan
	if err := dec.Decode(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *memoryPlanRepo) store(plan *models.TravelPlan) error {
	raw, err := bson.Marshal(plan)
	if err != nil {
		return err
	}
	r.plans[plan.ID] = raw
	return nil
}
