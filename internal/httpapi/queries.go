package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/db"
)

// QueryHandler serves tracked-query CRUD and run history reads.
type QueryHandler struct {
	store  *db.Store
	logger *zap.Logger
}

func NewQueryHandler(store *db.Store, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{store: store, logger: logger}
}

// Create handles POST /api/v1/clients/{id}/queries
func (h *QueryHandler) Create(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		sendError(w, "Text is required", http.StatusBadRequest)
		return
	}

	query, err := h.store.CreateQuery(r.Context(), clientID, req.Text)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, query)
}

// ListForClient handles GET /api/v1/clients/{id}/queries
func (h *QueryHandler) ListForClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	queries, err := h.store.ListQueries(r.Context(), clientID)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"queries": queries})
}

// Get handles GET /api/v1/queries/{id}
func (h *QueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid query ID", http.StatusBadRequest)
		return
	}
	query, err := h.store.GetQuery(r.Context(), id)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, query)
}

// Delete handles DELETE /api/v1/queries/{id}
func (h *QueryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid query ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteQuery(r.Context(), id); err != nil {
		sendAppError(w, err)
		return
	}
	h.logger.Info("Query deleted", zap.String("query_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListRuns handles GET /api/v1/queries/{id}/runs
func (h *QueryHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid query ID", http.StatusBadRequest)
		return
	}
	runs, err := h.store.ListRuns(r.Context(), id)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// ListCitations handles GET /api/v1/runs/{id}/citations
func (h *QueryHandler) ListCitations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid run ID", http.StatusBadRequest)
		return
	}
	citations, err := h.store.ListCitations(r.Context(), id)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"citations": citations})
}
