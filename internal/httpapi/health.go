package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/db"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	store  *db.Store
	redis  *redis.Client
	logger *zap.Logger
}

func NewHealthHandler(store *db.Store, redisClient *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, redis: redisClient, logger: logger}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Time    time.Time         `json:"time"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: "0.1.0",
		Time:    time.Now(),
	})
}

// Readiness handles GET /readiness. It pings the database and Redis; a
// failed database check makes the service not ready, a failed Redis check
// only degrades rate limiting and is reported without flipping status.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := healthResponse{
		Status:  "ready",
		Version: "0.1.0",
		Time:    time.Now(),
		Checks:  make(map[string]string),
	}

	if err := h.store.DB().PingContext(ctx); err != nil {
		h.logger.Error("Database not reachable", zap.Error(err))
		response.Status = "not ready"
		response.Checks["database"] = "failed"
	} else {
		response.Checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			response.Checks["redis"] = "failed"
		} else {
			response.Checks["redis"] = "ok"
		}
	}

	code := http.StatusOK
	if response.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	sendJSON(w, code, response)
}
