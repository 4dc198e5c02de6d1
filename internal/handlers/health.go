package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"expiry-tracker/internal/events"
	"expiry-tracker/internal/repository"
)

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "expiry-tracker",
	})
}

// HealthHandler reports on the optional backing services. It holds the
// concrete repository because Redis health is outside the persistence
// contract the other handlers depend on.
type HealthHandler struct {
	repo           *repository.ItemRepository
	eventPublisher *events.TrackerEventPublisher
}

func NewHealthHandler(repo *repository.ItemRepository, eventPublisher *events.TrackerEventPublisher) *HealthHandler {
	return &HealthHandler{
		repo:           repo,
		eventPublisher: eventPublisher,
	}
}

// ExtendedHealthCheck returns detailed health status including the Redis
// cache and the NATS connection. Both are optional: an unhealthy check
// degrades the status but never fails the endpoint.
func (h *HealthHandler) ExtendedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "healthy",
		"service": "expiry-tracker",
		"checks":  gin.H{},
	}

	checks := health["checks"].(gin.H)

	// Check Redis
	if err := h.repo.RedisHealth(ctx); err != nil {
		checks["redis"] = gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	} else {
		checks["redis"] = gin.H{
			"status": "healthy",
		}
	}

	// Check NATS
	if h.eventPublisher == nil {
		checks["nats"] = gin.H{
			"status": "unhealthy",
			"error":  "event publisher not configured",
		}
	} else if !h.eventPublisher.IsConnected() {
		checks["nats"] = gin.H{
			"status": "unhealthy",
			"error":  "not connected",
		}
	} else {
		checks["nats"] = gin.H{
			"status": "healthy",
		}
	}

	// Determine overall health
	for _, check := range checks {
		if checkMap, ok := check.(gin.H); ok {
			if status, ok := checkMap["status"]; ok && status == "unhealthy" {
				health["status"] = "degraded"
				break
			}
		}
	}

	c.JSON(http.StatusOK, health)
}
