package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/db"
	"github.com/citelens/citelens/internal/domains"
)

// TagHandler serves the domain tag registry.
type TagHandler struct {
	store  *db.Store
	logger *zap.Logger
}

func NewTagHandler(store *db.Store, logger *zap.Logger) *TagHandler {
	return &TagHandler{store: store, logger: logger}
}

// List handles GET /api/v1/tags
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

// Upsert handles POST /api/v1/tags. The response reports how many existing
// unknown citations the new tag re-categorized.
func (h *TagHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain   string `json:"domain"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tag, retagged, err := h.store.UpsertTag(r.Context(), req.Domain, domains.Category(req.Category), db.ProvenanceUser)
	if err != nil {
		sendAppError(w, err)
		return
	}

	h.logger.Info("Tag upserted",
		zap.String("domain", tag.Domain),
		zap.String("category", tag.Category.String()),
		zap.Int64("retagged", retagged),
	)
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"tag":                tag,
		"retagged_citations": retagged,
	})
}

// Delete handles DELETE /api/v1/tags/{id}. System-seeded tags cannot be
// deleted.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid tag ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteTag(r.Context(), id); err != nil {
		sendAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
