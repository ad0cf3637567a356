package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/docuchat/docuchat/internal/app/system/ragclient"
	"github.com/docuchat/docuchat/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	RAG    *ragclient.Client
	Log    *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(client *mongo.Client, rag *ragclient.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, RAG: rag, Log: logger}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Retrieval string `json:"retrieval,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Serve handles GET /health. The database is load-bearing; an unreachable
// retrieval backend is reported but does not fail the check, since the rest
// of the app still works without it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.RAG != nil {
		if err := h.RAG.Health(ctx); err != nil {
			h.Log.Warn("health-check: rag service unreachable", zap.Error(err))
			resp.Retrieval = "unreachable"
		} else {
			resp.Retrieval = "connected"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
