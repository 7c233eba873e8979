package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"waypoint/models"
	"waypoint/services/tasks"
	"waypoint/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskInspector looks up queued tasks.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// CollectionHandler serves the on-demand data collection endpoints.
type CollectionHandler struct {
	Queue     TaskEnqueuer
	Inspector TaskInspector
	Logger    *zap.Logger
}

// CollectInput is the body of a collection trigger.
type CollectInput struct {
	Destination string `json:"destination" binding:"required"`
}

// CollectData handles POST /api/collect. It queues a refresh of the
// destination's datasets and returns the task id to poll.
func (h *CollectionHandler) CollectData(c *gin.Context) {
	var input CollectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	destination := strings.TrimSpace(input.Destination)
	if destination == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", "destination is empty")
		return
	}

	task, err := tasks.NewDataRefreshTask(models.RefreshPayload{Destinations: []string{destination}})
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid collection request", err.Error())
		return
	}
	info, err := h.Queue.Enqueue(task)
	if err != nil {
		getLogger(c, h.Logger).Error("CollectData: failed to enqueue task", zap.String("destination", destination), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to start data collection", err.Error())
		return
	}

	getLogger(c, h.Logger).Info("data collection queued", zap.String("destination", destination), zap.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": info.ID,
		"status":  "started",
		"message": "data collection started for " + destination,
	})
}

// GetCollectStatus handles GET /api/collect/status/:task_id.
func (h *CollectionHandler) GetCollectStatus(c *gin.Context) {
	id := c.Param("task_id")
	info, err := h.Inspector.GetTaskInfo(tasks.RefreshQueue, id)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		utils.JSONError(c, http.StatusNotFound, "collection task not found", id)
		return
	}
	if err != nil {
		getLogger(c, h.Logger).Error("GetCollectStatus: inspector failed", zap.String("task_id", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to load task status", err.Error())
		return
	}

	resp := gin.H{
		"task_id": info.ID,
		"status":  collectStatus(info.State),
	}
	if info.LastErr != "" {
		resp["error"] = info.LastErr
	}
	if len(info.Result) > 0 {
		resp["result"] = json.RawMessage(info.Result)
	}
	c.JSON(http.StatusOK, resp)
}

func collectStatus(state asynq.TaskState) string {
	switch state {
	case asynq.TaskStateActive:
		return "progress"
	case asynq.TaskStateCompleted:
		return "success"
	case asynq.TaskStateRetry:
		return "retrying"
	case asynq.TaskStateArchived:
		return "failed"
	}
	return "pending"
}
