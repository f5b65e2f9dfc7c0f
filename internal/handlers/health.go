package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/Job-Application-Portal/internal/dtos"
)

// HealthCheck is the liveness probe.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dtos.HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
