package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/db"
)

// ClientHandler serves tracked-client CRUD.
type ClientHandler struct {
	store  *db.Store
	logger *zap.Logger
}

func NewClientHandler(store *db.Store, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{store: store, logger: logger}
}

type clientRequest struct {
	Name         string   `json:"name"`
	OwnedDomains []string `json:"owned_domains"`
}

// Create handles POST /api/v1/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		sendError(w, "Name is required", http.StatusBadRequest)
		return
	}

	client, err := h.store.CreateClient(r.Context(), req.Name, req.OwnedDomains)
	if err != nil {
		h.logger.Error("Failed to create client", zap.Error(err))
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, client)
}

// List handles GET /api/v1/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"clients": clients})
}

// Get handles GET /api/v1/clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	client, err := h.store.GetClient(r.Context(), id)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, client)
}

// Update handles PUT /api/v1/clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		sendError(w, "Name is required", http.StatusBadRequest)
		return
	}

	client, err := h.store.UpdateClient(r.Context(), id, req.Name, req.OwnedDomains)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, client)
}

// Delete handles DELETE /api/v1/clients/{id}
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteClient(r.Context(), id); err != nil {
		sendAppError(w, err)
		return
	}
	h.logger.Info("Client deleted", zap.String("client_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/clients/{id}/stats
func (h *ClientHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		sendError(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	stats, err := h.store.ClientStats(r.Context(), id)
	if err != nil {
		sendAppError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, stats)
}
