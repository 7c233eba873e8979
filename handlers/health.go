package handlers

import (
	"net/http"

	"waypoint/utils"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health with the last dependency check.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Mongo || !status.Redis {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
