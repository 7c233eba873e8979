package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	planRepo "waypoint/database/repository/plan"
	"waypoint/models"
	"waypoint/services/agent"
	"waypoint/services/tasks"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

type fakeAgent struct {
	agent.AgentService
	selectErr error
	refineErr error
	refined   map[string]interface{}
	selected  int
	recs      []models.Recommendation
}

func (f *fakeAgent) SelectPlan(ctx context.Context, planID string, index int) (*models.PlanVariant, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	f.selected = index
	return &models.PlanVariant{ID: "v1", Type: "budget"}, nil
}

func (f *fakeAgent) RefinePlan(ctx context.Context, planID string, index int, refinements map[string]interface{}) (*models.PlanVariant, error) {
	if f.refineErr != nil {
		return nil, f.refineErr
	}
	f.refined = refinements
	return &models.PlanVariant{ID: "v1", Type: "budget", Score: 71.5}, nil
}

func (f *fakeAgent) Recommendations(ctx context.Context, planID string) ([]models.Recommendation, error) {
	return f.recs, nil
}

func setupRouter(t *testing.T) (*gin.Engine, planRepo.PlanRepository, *fakeEnqueuer, *fakeAgent) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := planRepo.NewMemoryPlanRepo()
	queue := &fakeEnqueuer{}
	agentSvc := &fakeAgent{}
	h := &PlanHandler{Repo: repo, AgentSvc: agentSvc, Queue: queue, Logger: zap.NewNop()}
	hb := NewHandlerBundle(h, &CollectionHandler{Queue: queue, Logger: zap.NewNop()})

	r := gin.New()
	api := r.Group("/api/plans")
	api.POST("", hb.CreatePlanHandler)
	api.GET("", hb.ListPlansHandler)
	api.GET("/:id", hb.GetPlanHandler)
	api.PUT("/:id", hb.UpdatePlanHandler)
	api.DELETE("/:id", hb.DeletePlanHandler)
	api.POST("/:id/generate", hb.GeneratePlansHandler)
	api.GET("/:id/status", hb.GetStatusHandler)
	api.POST("/:id/select", hb.SelectPlanHandler)
	api.POST("/:id/refine", hb.RefinePlanHandler)
	api.GET("/:id/recommendations", hb.GetRecommendationsHandler)
	return r, repo, queue, agentSvc
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedPlan(t *testing.T, repo planRepo.PlanRepository) string {
	t.Helper()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	id, err := repo.Create(context.Background(), &models.TravelPlan{
		UserID:       "u1",
		Title:        "Summer",
		Destination:  "Hangzhou",
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 2),
		DurationDays: 3,
	})
	require.NoError(t, err)
	return id
}

func TestCreatePlan(t *testing.T) {
	r, repo, _, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/plans", map[string]interface{}{
		"user_id":     "u1",
		"title":       "Long weekend",
		"destination": "Chengdu",
		"start_date":  "2024-06-01T00:00:00Z",
		"end_date":    "2024-06-03T00:00:00Z",
		"budget":      3000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.TravelPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, 3, created.DurationDays)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chengdu", stored.Destination)
}

func TestCreatePlanRejectsBadInput(t *testing.T) {
	r, _, _, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/plans", map[string]interface{}{"title": "missing fields"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/plans", map[string]interface{}{
		"user_id":     "u1",
		"title":       "Backwards",
		"destination": "Chengdu",
		"start_date":  "2024-06-05T00:00:00Z",
		"end_date":    "2024-06-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPlanNotFound(t *testing.T) {
	r, _, _, _ := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/api/plans/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGeneratePlans(t *testing.T) {
	t.Run("unknown plan", func(t *testing.T) {
		r, _, queue, _ := setupRouter(t)
		w := doJSON(r, http.MethodPost, "/api/plans/missing/generate", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, queue.tasks)
	})

	t.Run("enqueues generation task", func(t *testing.T) {
		r, repo, queue, _ := setupRouter(t)
		id := seedPlan(t, repo)

		w := doJSON(r, http.MethodPost, "/api/plans/"+id+"/generate", map[string]interface{}{
			"preferences": map[string]interface{}{"interests": []string{"museum"}},
		})
		require.Equal(t, http.StatusAccepted, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, id, resp["plan_id"])
		assert.Equal(t, "task-1", resp["task_id"])
		assert.Equal(t, string(models.StatusGenerating), resp["status"])

		require.Len(t, queue.tasks, 1)
		assert.Equal(t, tasks.TypeGeneratePlan, queue.tasks[0].Type())
		var payload models.GeneratePlanPayload
		require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &payload))
		assert.Equal(t, id, payload.PlanID)
		assert.Contains(t, payload.Preferences, "interests")
	})

	t.Run("empty body is accepted", func(t *testing.T) {
		r, repo, queue, _ := setupRouter(t)
		id := seedPlan(t, repo)
		w := doJSON(r, http.MethodPost, "/api/plans/"+id+"/generate", nil)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Len(t, queue.tasks, 1)
	})

	t.Run("queue failure", func(t *testing.T) {
		r, repo, queue, _ := setupRouter(t)
		queue.err = errors.New("redis down")
		id := seedPlan(t, repo)
		w := doJSON(r, http.MethodPost, "/api/plans/"+id+"/generate", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetStatus(t *testing.T) {
	r, repo, _, _ := setupRouter(t)
	id := seedPlan(t, repo)
	require.NoError(t, repo.UpdateStatus(context.Background(), id, models.StatusGenerating))

	w := doJSON(r, http.MethodGet, "/api/plans/"+id+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PlanStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.PlanID)
	assert.Equal(t, models.StatusGenerating, resp.Status)
	assert.Empty(t, resp.GeneratedPlans)
	assert.Nil(t, resp.SelectedPlan)
}

func TestSelectPlan(t *testing.T) {
	t.Run("non-numeric index", func(t *testing.T) {
		r, _, _, _ := setupRouter(t)
		w := doJSON(r, http.MethodPost, "/api/plans/p1/select?plan_index=first", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("agent errors map to status codes", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want int
			code string
		}{
			{"not found", &agent.PlanError{Code: agent.CodePlanNotFound, Message: "travel plan p1 not found"}, http.StatusNotFound, agent.CodePlanNotFound},
			{"no plans", agent.ErrNoGeneratedPlans, http.StatusBadRequest, agent.CodeNoGeneratedPlans},
			{"out of range", agent.ErrIndexOutOfRange, http.StatusBadRequest, agent.CodeIndexOutOfRange},
			{"storage", errors.New("mongo timeout"), http.StatusInternalServerError, ""},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				r, _, _, agentSvc := setupRouter(t)
				agentSvc.selectErr = tc.err
				w := doJSON(r, http.MethodPost, "/api/plans/p1/select?plan_index=2", nil)
				assert.Equal(t, tc.want, w.Code)

				var resp map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				if tc.code != "" {
					assert.Equal(t, tc.code, resp["code"])
				}
			})
		}
	})

	t.Run("success", func(t *testing.T) {
		r, _, _, agentSvc := setupRouter(t)
		w := doJSON(r, http.MethodPost, "/api/plans/p1/select?plan_index=1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, agentSvc.selected)
	})
}

func TestRefinePlan(t *testing.T) {
	r, _, _, agentSvc := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/plans/p1/refine", map[string]interface{}{
		"refinements": map[string]interface{}{"budget_adjustment": 0.8},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "plan_index is required")

	w = doJSON(r, http.MethodPost, "/api/plans/p1/refine", map[string]interface{}{
		"plan_index":  0,
		"refinements": map[string]interface{}{"budget_adjustment": 0.8},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.8, agentSvc.refined["budget_adjustment"])

	var variant models.PlanVariant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &variant))
	assert.Equal(t, 71.5, variant.Score)

	agentSvc.refineErr = agent.ErrIndexOutOfRange
	w = doJSON(r, http.MethodPost, "/api/plans/p1/refine", map[string]interface{}{
		"plan_index":  9,
		"refinements": map[string]interface{}{"time_preference": "early"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecommendations(t *testing.T) {
	r, _, _, agentSvc := setupRouter(t)
	agentSvc.recs = []models.Recommendation{{Type: "weather", Content: "Pack an umbrella", Priority: "medium"}}

	w := doJSON(r, http.MethodGet, "/api/plans/p1/recommendations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "weather", resp.Recommendations[0].Type)
}

func TestListPlans(t *testing.T) {
	r, repo, _, _ := setupRouter(t)
	seedPlan(t, repo)
	_, err := repo.Create(context.Background(), &models.TravelPlan{UserID: "u2", Title: "Other", Destination: "Oslo"})
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/api/plans?user_id=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plans []models.TravelPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "Hangzhou", plans[0].Destination)

	w = doJSON(r, http.MethodGet, "/api/plans?user_id=nobody", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, query := range []string{"?status=archived", "?skip=-1", "?limit=ten"} {
		w = doJSON(r, http.MethodGet, "/api/plans"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestUpdatePlan(t *testing.T) {
	r, repo, _, _ := setupRouter(t)
	id := seedPlan(t, repo)

	w := doJSON(r, http.MethodPut, "/api/plans/"+id, map[string]interface{}{
		"title":    "Autumn",
		"end_date": "2024-06-05T00:00:00Z",
		"budget":   5200,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	plan, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Autumn", plan.Title)
	assert.Equal(t, "Hangzhou", plan.Destination)
	assert.Equal(t, 5, plan.DurationDays)
	assert.Equal(t, 5200.0, plan.Budget)

	t.Run("rejects inverted dates", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/api/plans/"+id, map[string]interface{}{"end_date": "2024-05-01T00:00:00Z"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		plan, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 5, plan.DurationDays)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/api/plans/"+id, map[string]interface{}{"title": " "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing plan", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/api/plans/missing", map[string]interface{}{"title": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeletePlan(t *testing.T) {
	r, repo, _, _ := setupRouter(t)
	id := seedPlan(t, repo)

	w := doJSON(r, http.MethodDelete, "/api/plans/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, planRepo.ErrNotFound)

	w = doJSON(r, http.MethodDelete, "/api/plans/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
