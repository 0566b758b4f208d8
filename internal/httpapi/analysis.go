package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/analysis"
)

// maxBatchSize caps the query ids accepted in one batch request.
const maxBatchSize = 50

// AnalysisHandler triggers single and batch analyses.
type AnalysisHandler struct {
	service *analysis.Service
	logger  *zap.Logger
}

func NewAnalysisHandler(service *analysis.Service, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: service, logger: logger}
}

// Analyze handles POST /api/v1/queries/{id}/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid query ID", http.StatusBadRequest)
		return
	}

	result, err := h.service.AnalyzeQuery(r.Context(), id)
	if err != nil {
		h.logger.Warn("Analysis failed", zap.String("query_id", id.String()), zap.Error(err))
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, result)
}

// AnalyzeBatch handles POST /api/v1/analyze/batch
func (h *AnalysisHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QueryIDs []uuid.UUID `json:"query_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.QueryIDs) == 0 {
		sendError(w, "query_ids is required", http.StatusBadRequest)
		return
	}
	if len(req.QueryIDs) > maxBatchSize {
		sendError(w, "Too many query IDs in one batch", http.StatusBadRequest)
		return
	}

	batch, err := h.service.AnalyzeBatch(r.Context(), req.QueryIDs)
	if err != nil {
		// Only context cancellation aborts a batch; item failures are
		// reported inside the result.
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, batch)
}
