package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"waypoint/models"
	"waypoint/services/tasks"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInspector struct {
	infos map[string]*asynq.TaskInfo
	err   error
	queue string
}

func (f *fakeInspector) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	f.queue = queue
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[id]
	if !ok {
		return nil, fmt.Errorf("asynq: %w", asynq.ErrTaskNotFound)
	}
	return info, nil
}

func setupCollectRouter(t *testing.T) (*gin.Engine, *fakeEnqueuer, *fakeInspector) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	queue := &fakeEnqueuer{}
	inspector := &fakeInspector{infos: map[string]*asynq.TaskInfo{}}
	h := &CollectionHandler{Queue: queue, Inspector: inspector, Logger: zap.NewNop()}

	r := gin.New()
	r.POST("/api/collect", h.CollectData)
	r.GET("/api/collect/status/:task_id", h.GetCollectStatus)
	return r, queue, inspector
}

func TestCollectData(t *testing.T) {
	r, queue, _ := setupCollectRouter(t)

	w := doJSON(r, http.MethodPost, "/api/collect", map[string]string{"destination": " Kyoto "})
	require.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "task-1", body["task_id"])
	assert.Equal(t, "started", body["status"])

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.TypeDataRefresh, queue.tasks[0].Type())
	var payload models.RefreshPayload
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &payload))
	assert.Equal(t, []string{"Kyoto"}, payload.Destinations)

	t.Run("rejects missing destination", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/collect", map[string]string{"destination": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = doJSON(r, http.MethodPost, "/api/collect", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, queue.tasks, 1)
	})

	t.Run("queue down", func(t *testing.T) {
		queue.err = errors.New("redis unavailable")
		w := doJSON(r, http.MethodPost, "/api/collect", map[string]string{"destination": "Kyoto"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetCollectStatus(t *testing.T) {
	r, _, inspector := setupCollectRouter(t)
	inspector.infos["t-done"] = &asynq.TaskInfo{
		ID:     "t-done",
		State:  asynq.TaskStateCompleted,
		Result: []byte(`{"Kyoto":{"attractions":{"source":"live","count":3}}}`),
	}
	inspector.infos["t-retry"] = &asynq.TaskInfo{ID: "t-retry", State: asynq.TaskStateRetry, LastErr: "timeout"}
	inspector.infos["t-queued"] = &asynq.TaskInfo{ID: "t-queued", State: asynq.TaskStatePending}

	w := doJSON(r, http.MethodGet, "/api/collect/status/t-done", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tasks.RefreshQueue, inspector.queue)
	var done map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
	assert.Equal(t, "success", done["status"])
	assert.Contains(t, done["result"], "Kyoto")

	w = doJSON(r, http.MethodGet, "/api/collect/status/t-retry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"task_id":"t-retry","status":"retrying","error":"timeout"}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/collect/status/t-queued", nil)
	assert.JSONEq(t, `{"task_id":"t-queued","status":"pending"}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/collect/status/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	inspector.err = errors.New("redis unavailable")
	w = doJSON(r, http.MethodGet, "/api/collect/status/t-done", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
