package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	planRepo "waypoint/database/repository/plan"
	"waypoint/models"
	"waypoint/services/agent"
	"waypoint/services/tasks"
	"waypoint/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskEnqueuer hands background tasks to the worker queue.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PlanHandler serves the travel plan endpoints.
type PlanHandler struct {
	Repo     planRepo.PlanRepository
	AgentSvc agent.AgentService
	Queue    TaskEnqueuer
	Logger   *zap.Logger
}

// CreatePlan handles POST /api/plans.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var input models.CreatePlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if input.EndDate.Before(input.StartDate) {
		utils.JSONError(c, http.StatusBadRequest, "invalid date range", "end_date is before start_date")
		return
	}

	plan := &models.TravelPlan{
		UserID:       input.UserID,
		Title:        input.Title,
		Description:  input.Description,
		Destination:  input.Destination,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		DurationDays: input.DurationDays,
		Budget:       input.Budget,
		Preferences:  input.Preferences,
		Requirements: input.Requirements,
	}
	if plan.DurationDays <= 0 {
		plan.DurationDays = models.InclusiveDays(plan.StartDate, plan.EndDate)
	}

	id, err := h.Repo.Create(c.Request.Context(), plan)
	if err != nil {
		h.log(c).Error("CreatePlan: failed to create plan", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to create plan", err.Error())
		return
	}
	h.log(c).Info("plan created", zap.String("plan_id", id), zap.String("destination", plan.Destination))
	c.JSON(http.StatusCreated, plan)
}

// GetPlan handles GET /api/plans/:id.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, ok := h.loadPlan(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListPlans handles GET /api/plans?user_id=&status=&skip=&limit=.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	opts := models.PlanListOptions{
		UserID: c.Query("user_id"),
		Status: models.PlanStatus(c.Query("status")),
	}
	if opts.Status != "" && !validStatus(opts.Status) {
		utils.JSONError(c, http.StatusBadRequest, "invalid status", string(opts.Status))
		return
	}
	var err error
	if opts.Skip, err = queryInt(c, "skip", 0); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid skip", err.Error())
		return
	}
	if opts.Limit, err = queryInt(c, "limit", planRepo.DefaultListLimit); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	plans, err := h.Repo.List(c.Request.Context(), opts)
	if err != nil {
		h.log(c).Error("ListPlans: failed to list plans", zap.String("user_id", opts.UserID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list plans", err.Error())
		return
	}
	c.JSON(http.StatusOK, plans)
}

// UpdatePlan handles PUT /api/plans/:id.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	var input models.UpdatePlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	plan, ok := h.loadPlan(c)
	if !ok {
		return
	}

	input.Apply(plan)
	switch {
	case strings.TrimSpace(plan.Title) == "", strings.TrimSpace(plan.Destination) == "":
		utils.JSONError(c, http.StatusBadRequest, "invalid plan", "title and destination must not be empty")
		return
	case plan.EndDate.Before(plan.StartDate):
		utils.JSONError(c, http.StatusBadRequest, "invalid date range", "end_date is before start_date")
		return
	case plan.DurationDays <= 0:
		utils.JSONError(c, http.StatusBadRequest, "invalid duration", "duration_days must be positive")
		return
	}

	err := h.Repo.Update(c.Request.Context(), plan)
	if errors.Is(err, planRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "travel plan not found", plan.ID)
		return
	}
	if err != nil {
		h.log(c).Error("UpdatePlan: failed to update plan", zap.String("plan_id", plan.ID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to update plan", err.Error())
		return
	}
	h.log(c).Info("plan updated", zap.String("plan_id", plan.ID))
	c.JSON(http.StatusOK, plan)
}

// DeletePlan handles DELETE /api/plans/:id.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	id := c.Param("id")
	err := h.Repo.Delete(c.Request.Context(), id)
	if errors.Is(err, planRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "travel plan not found", id)
		return
	}
	if err != nil {
		h.log(c).Error("DeletePlan: failed to delete plan", zap.String("plan_id", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to delete plan", err.Error())
		return
	}
	h.log(c).Info("plan deleted", zap.String("plan_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "travel plan deleted", "plan_id": id})
}

// GeneratePlans handles POST /api/plans/:id/generate. The run happens in the
// background worker; callers poll the status endpoint.
func (h *PlanHandler) GeneratePlans(c *gin.Context) {
	var body models.GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	plan, ok := h.loadPlan(c)
	if !ok {
		return
	}

	task, opts, err := tasks.NewGeneratePlanTask(models.GeneratePlanPayload{
		PlanID:       plan.ID,
		Preferences:  body.Preferences,
		Requirements: body.Requirements,
	})
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid generation request", err.Error())
		return
	}
	info, err := h.Queue.Enqueue(task, opts...)
	if err != nil {
		h.log(c).Error("GeneratePlans: failed to enqueue task", zap.String("plan_id", plan.ID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to start plan generation", err.Error())
		return
	}

	h.log(c).Info("plan generation queued", zap.String("plan_id", plan.ID), zap.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"message": "plan generation started",
		"plan_id": plan.ID,
		"status":  models.StatusGenerating,
		"task_id": info.ID,
	})
}

// GetStatus handles GET /api/plans/:id/status.
func (h *PlanHandler) GetStatus(c *gin.Context) {
	plan, ok := h.loadPlan(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.PlanStatusResponse{
		PlanID:         plan.ID,
		Status:         plan.Status,
		GeneratedPlans: plan.GeneratedPlans,
		SelectedPlan:   plan.SelectedPlan,
	})
}

// SelectPlan handles POST /api/plans/:id/select?plan_index=N.
func (h *PlanHandler) SelectPlan(c *gin.Context) {
	index, err := strconv.Atoi(c.Query("plan_index"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid plan_index", "plan_index must be an integer")
		return
	}
	selected, err := h.AgentSvc.SelectPlan(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		h.writeAgentError(c, "failed to select plan", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "plan selected", "selected_plan": selected})
}

// RefinePlan handles POST /api/plans/:id/refine.
func (h *PlanHandler) RefinePlan(c *gin.Context) {
	var body struct {
		PlanIndex   *int                   `json:"plan_index" binding:"required"`
		Refinements map[string]interface{} `json:"refinements" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	refined, err := h.AgentSvc.RefinePlan(c.Request.Context(), c.Param("id"), *body.PlanIndex, body.Refinements)
	if err != nil {
		h.writeAgentError(c, "failed to refine plan", err)
		return
	}
	c.JSON(http.StatusOK, refined)
}

// GetRecommendations handles GET /api/plans/:id/recommendations.
func (h *PlanHandler) GetRecommendations(c *gin.Context) {
	recs, err := h.AgentSvc.Recommendations(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeAgentError(c, "failed to load recommendations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *PlanHandler) log(c *gin.Context) *zap.Logger {
	return getLogger(c, h.Logger)
}

func validStatus(status models.PlanStatus) bool {
	for _, s := range models.AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// queryInt reads a non-negative integer query parameter.
func queryInt(c *gin.Context, key string, fallback int64) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func (h *PlanHandler) loadPlan(c *gin.Context) (*models.TravelPlan, bool) {
	id := c.Param("id")
	plan, err := h.Repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, planRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "travel plan not found", id)
		return nil, false
	}
	if err != nil {
		h.log(c).Error("failed to load plan", zap.String("plan_id", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to load plan", err.Error())
		return nil, false
	}
	return plan, true
}

func (h *PlanHandler) writeAgentError(c *gin.Context, message string, err error) {
	var planErr *agent.PlanError
	if errors.As(err, &planErr) {
		status := http.StatusBadRequest
		if planErr.Code == agent.CodePlanNotFound {
			status = http.StatusNotFound
		}
		utils.JSONErrorWithCode(c, status, message, planErr.Code, planErr.Message)
		return
	}
	h.log(c).Error(message, zap.String("plan_id", c.Param("id")), zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, message, err.Error())
}
