package models

import "time"

// PlanStatus is the lifecycle state of a travel plan's generation run.
type PlanStatus string

const (
	StatusPending    PlanStatus = "pending"
	StatusGenerating PlanStatus = "generating"
	StatusCompleted  PlanStatus = "completed"
	StatusFailed     PlanStatus = "failed"
)

// CanTransition reports whether moving from s to next is allowed. Any state
// may (re-)enter generating; completed and failed are only reachable from
// generating.
func (s PlanStatus) CanTransition(next PlanStatus) bool {
	switch next {
	case StatusGenerating:
		return true
	case StatusCompleted, StatusFailed:
		return s == StatusGenerating
	}
	return false
}

// AllStatuses lists every lifecycle state.
var AllStatuses = []PlanStatus{StatusPending, StatusGenerating, StatusCompleted, StatusFailed}

// TransitionSources returns the states from which next may be entered.
func TransitionSources(next PlanStatus) []PlanStatus {
	var out []PlanStatus
	for _, s := range AllStatuses {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

// TravelPlan is the persisted plan record.
type TravelPlan struct {
	ID             string                 `bson:"id" json:"id"`
	UserID         string                 `bson:"userId" json:"user_id"`
	Title          string                 `bson:"title" json:"title"`
	Description    string                 `bson:"description,omitempty" json:"description,omitempty"`
	Destination    string                 `bson:"destination" json:"destination"`
	StartDate      time.Time              `bson:"startDate" json:"start_date"`
	EndDate        time.Time              `bson:"endDate" json:"end_date"`
	DurationDays   int                    `bson:"durationDays" json:"duration_days"`
	Budget         float64                `bson:"budget,omitempty" json:"budget,omitempty"`
	Preferences    map[string]interface{} `bson:"preferences,omitempty" json:"preferences,omitempty"`
	Requirements   map[string]interface{} `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Status         PlanStatus             `bson:"status" json:"status"`
	GeneratedPlans []PlanVariant          `bson:"generatedPlans" json:"generated_plans"`
	SelectedPlan   *PlanVariant           `bson:"selectedPlan,omitempty" json:"selected_plan"`
	CreatedAt      time.Time              `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time              `bson:"updatedAt" json:"updated_at"`
}

// TripContext is the subset of a plan the generators need.
type TripContext struct {
	Destination  string    `json:"destination"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	DurationDays int       `json:"duration_days"`
	Budget       float64   `json:"budget,omitempty"`
}

// Trip derives the generator context from the plan record.
func (p *TravelPlan) Trip() TripContext {
	return TripContext{
		Destination:  p.Destination,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		DurationDays: p.DurationDays,
		Budget:       p.Budget,
	}
}

// CollectionRequest derives the collector input from the plan record.
func (p *TravelPlan) CollectionRequest() CollectionRequest {
	return CollectionRequest{
		Destination: p.Destination,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
	}
}

// PlanStatusResponse is what the status-polling endpoint returns.
type PlanStatusResponse struct {
	PlanID         string        `json:"plan_id"`
	Status         PlanStatus    `json:"status"`
	GeneratedPlans []PlanVariant `json:"generated_plans"`
	SelectedPlan   *PlanVariant  `json:"selected_plan"`
}

// CreatePlanInput is the request body for creating a plan.
type CreatePlanInput struct {
	UserID       string                 `json:"user_id" binding:"required"`
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description"`
	Destination  string                 `json:"destination" binding:"required"`
	StartDate    time.Time              `json:"start_date" binding:"required"`
	EndDate      time.Time              `json:"end_date" binding:"required"`
	DurationDays int                    `json:"duration_days"`
	Budget       float64                `json:"budget"`
	Preferences  map[string]interface{} `json:"preferences"`
	Requirements map[string]interface{} `json:"requirements"`
}

// GenerateRequest is the body of a generation trigger.
type GenerateRequest struct {
	Preferences  map[string]interface{} `json:"preferences"`
	Requirements map[string]interface{} `json:"requirements"`
}

// UpdatePlanInput is the body of a plan edit. Nil fields are left unchanged.
type UpdatePlanInput struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	Destination  *string                `json:"destination"`
	StartDate    *time.Time             `json:"start_date"`
	EndDate      *time.Time             `json:"end_date"`
	DurationDays *int                   `json:"duration_days"`
	Budget       *float64               `json:"budget"`
	Preferences  map[string]interface{} `json:"preferences"`
	Requirements map[string]interface{} `json:"requirements"`
}

// Apply copies the set fields onto p. Changing a date without an explicit
// duration recomputes the day count.
func (in UpdatePlanInput) Apply(p *TravelPlan) {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Destination != nil {
		p.Destination = *in.Destination
	}
	if in.StartDate != nil {
		p.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = *in.EndDate
	}
	switch {
	case in.DurationDays != nil:
		p.DurationDays = *in.DurationDays
	case in.StartDate != nil || in.EndDate != nil:
		p.DurationDays = InclusiveDays(p.StartDate, p.EndDate)
	}
	if in.Budget != nil {
		p.Budget = *in.Budget
	}
	if in.Preferences != nil {
		p.Preferences = in.Preferences
	}
	if in.Requirements != nil {
		p.Requirements = in.Requirements
	}
}

// InclusiveDays counts the calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// PlanListOptions filters and pages a plan listing. Zero values mean no
// filter; Limit 0 uses the repository default.
type PlanListOptions struct {
	UserID string
	Status PlanStatus
	Skip   int64
	Limit  int64
}
