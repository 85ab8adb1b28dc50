package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmyapp/notification/internal/database"
	"github.com/prepmyapp/notification/internal/infrastructure/cache"
)

// HealthHandler handles health check endpoints. These are essential
// for container orchestration (Kubernetes, Docker).
type HealthHandler struct {
	db    *database.DB
	cache *cache.Store
}

// NewHealthHandler creates a new health handler. cacheStore may be nil
// when Redis is not configured; the readiness probe reports it as
// "not configured" rather than unhealthy in that case.
func NewHealthHandler(db *database.DB, cacheStore *cache.Store) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheStore}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health returns a simple health check.
// Used for basic "is the service running" checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: "1.0.0",
	})
}

// Ready checks if the service is ready to accept traffic by pinging
// its dependencies.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := make(map[string]string)
	allHealthy := true

	if err := h.db.Ping(c.Request.Context()); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.cache.Configured() {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := http.StatusOK
	statusText := "ready"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		statusText = "not ready"
	}

	c.JSON(status, HealthResponse{
		Status: statusText,
		Checks: checks,
	})
}

// Live checks if the service is alive.
// This is a simple check - if the server responds, it's alive.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
	})
}

// RegisterRoutes registers health check routes on a Gin router group.
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	health.GET("", h.Health)
	health.GET("/ready", h.Ready)
	health.GET("/live", h.Live)
}
