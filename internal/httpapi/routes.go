package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/analysis"
	"github.com/citelens/citelens/internal/db"
)

// NewRouter wires every endpoint onto a ServeMux. API routes go through
// request logging and the Redis rate limiter; probes and metrics do not.
func NewRouter(store *db.Store, service *analysis.Service, redisClient *redis.Client, requestsPerMinute int, logger *zap.Logger) *http.ServeMux {
	clients := NewClientHandler(store, logger)
	queries := NewQueryHandler(store, logger)
	analyses := NewAnalysisHandler(service, logger)
	tags := NewTagHandler(store, logger)
	health := NewHealthHandler(store, redisClient, logger)

	logRequests := RequestLogger(logger)
	rateLimit := NewRateLimiter(redisClient, requestsPerMinute, logger).Middleware

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /readiness", health.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	api := func(h http.HandlerFunc) http.Handler {
		return logRequests(rateLimit(h))
	}

	mux.Handle("POST /api/v1/clients", api(clients.Create))
	mux.Handle("GET /api/v1/clients", api(clients.List))
	mux.Handle("GET /api/v1/clients/{id}", api(clients.Get))
	mux.Handle("PUT /api/v1/clients/{id}", api(clients.Update))
	mux.Handle("DELETE /api/v1/clients/{id}", api(clients.Delete))
	mux.Handle("GET /api/v1/clients/{id}/stats", api(clients.Stats))

	mux.Handle("POST /api/v1/clients/{id}/queries", api(queries.Create))
	mux.Handle("GET /api/v1/clients/{id}/queries", api(queries.ListForClient))
	mux.Handle("GET /api/v1/queries/{id}", api(queries.Get))
	mux.Handle("DELETE /api/v1/queries/{id}", api(queries.Delete))
	mux.Handle("GET /api/v1/queries/{id}/runs", api(queries.ListRuns))
	mux.Handle("GET /api/v1/runs/{id}/citations", api(queries.ListCitations))

	mux.Handle("POST /api/v1/queries/{id}/analyze", api(analyses.Analyze))
	mux.Handle("POST /api/v1/analyze/batch", api(analyses.AnalyzeBatch))

	mux.Handle("GET /api/v1/tags", api(tags.List))
	mux.Handle("POST /api/v1/tags", api(tags.Upsert))
	mux.Handle("DELETE /api/v1/tags/{id}", api(tags.Delete))

	return mux
}
