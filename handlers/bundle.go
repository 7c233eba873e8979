package handlers

import (
	planRepo "waypoint/database/repository/plan"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	PlanRepo planRepo.PlanRepository

	// Plan endpoints
	CreatePlanHandler         gin.HandlerFunc
	ListPlansHandler          gin.HandlerFunc
	GetPlanHandler            gin.HandlerFunc
	UpdatePlanHandler         gin.HandlerFunc
	DeletePlanHandler         gin.HandlerFunc
	GeneratePlansHandler      gin.HandlerFunc
	GetStatusHandler          gin.HandlerFunc
	SelectPlanHandler         gin.HandlerFunc
	RefinePlanHandler         gin.HandlerFunc
	GetRecommendationsHandler gin.HandlerFunc

	// Collection endpoints
	CollectDataHandler      gin.HandlerFunc
	GetCollectStatusHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle binds the plan and collection handler methods into a
// bundle.
func NewHandlerBundle(h *PlanHandler, ch *CollectionHandler) *HandlerBundle {
	return &HandlerBundle{
		PlanRepo: h.Repo,

		CreatePlanHandler:         h.CreatePlan,
		ListPlansHandler:          h.ListPlans,
		GetPlanHandler:            h.GetPlan,
		UpdatePlanHandler:         h.UpdatePlan,
		DeletePlanHandler:         h.DeletePlan,
		GeneratePlansHandler:      h.GeneratePlans,
		GetStatusHandler:          h.GetStatus,
		SelectPlanHandler:         h.SelectPlan,
		RefinePlanHandler:         h.RefinePlan,
		GetRecommendationsHandler: h.GetRecommendations,

		CollectDataHandler:      ch.CollectData,
		GetCollectStatusHandler: ch.GetCollectStatus,

		HealthHandler: Health,
	}
}
