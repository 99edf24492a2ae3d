package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/services"
	"github.com/oldfield/dashboard/internal/util"
)

// HealthHandler serves the system health view
type HealthHandler struct {
	healthSvc *services.HealthService
	loc       *time.Location
}

// NewHealthHandler creates a new HealthHandler. Timestamps in the text table
// are rendered in loc.
func NewHealthHandler(healthSvc *services.HealthService, loc *time.Location) *HealthHandler {
	return &HealthHandler{
		healthSvc: healthSvc,
		loc:       loc,
	}
}

// Liveness handles GET /health
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// List handles GET /system-health
// @Summary Latest manifest per domain
// @Description Returns the most recent source manifest of every domain with its freshness verdict
// @Tags health
// @Produce json
// @Success 200 {array} models.DomainHealth
// @Failure 500 {object} models.ErrorResponse
// @Router /system-health [get]
func (h *HealthHandler) List(c *gin.Context) {
	rows, err := h.healthSvc.LatestByDomain(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Table handles GET /system-health/table
// @Summary Latest manifest per domain as a text table
// @Tags health
// @Produce plain
// @Success 200 {string} string
// @Failure 500 {object} models.ErrorResponse
// @Router /system-health/table [get]
func (h *HealthHandler) Table(c *gin.Context) {
	rows, err := h.healthSvc.LatestByDomain(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.String(http.StatusOK, util.RenderHealthTable(rows, h.loc))
}
