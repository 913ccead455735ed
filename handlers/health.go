package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthHandler reports the state of the database and Redis connections.
// Either may be nil; a nil dependency is not reported.
type HealthHandler struct {
	db     *sql.DB
	redis  *redis.Client
	logger *logrus.Logger
}

func NewHealthHandler(db *sql.DB, redis *redis.Client, logger *logrus.Logger) *HealthHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthHandler{db: db, redis: redis, logger: logger}
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health handles GET /healthz. The database being down is unhealthy (503),
// Redis being down only degrades the service.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := StatusHealthy
	deps := map[string]DependencyStatus{}

	if h.db != nil {
		dep := DependencyStatus{Status: StatusHealthy}
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WithError(err).Error("Health check: database ping failed")
			dep = DependencyStatus{Status: StatusUnhealthy, Message: "database unreachable"}
			status = StatusUnhealthy
		}
		deps["database"] = dep
	}

	if h.redis != nil {
		dep := DependencyStatus{Status: StatusHealthy}
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.WithError(err).Warn("Health check: redis ping failed")
			dep = DependencyStatus{Status: StatusUnhealthy, Message: "redis unreachable"}
			if status != StatusUnhealthy {
				status = StatusDegraded
			}
		}
		deps["redis"] = dep
	}

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}
