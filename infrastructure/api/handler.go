// Package api exposes the user and item operations over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"sharecircle/errors"
	"sharecircle/observability"
	"sharecircle/services"
)

const (
	// multipart parts above this size spill to disk
	multipartMemory = 1 << 20

	maxAvatarRequestBytes = 3 << 20
	maxItemRequestBytes   = 12 << 20
	maxJSONBodyBytes      = 1 << 20
)

type Handler struct {
	log        *slog.Logger
	users      services.IAuthService
	items      services.IItemService
	queries    services.IGeoQueryEngine
	monitoring *observability.MonitoringManager
}

func NewHandler(
	log *slog.Logger,
	users services.IAuthService,
	items services.IItemService,
	queries services.IGeoQueryEngine,
	monitoring *observability.MonitoringManager,
) *Handler {
	return &Handler{log: log, users: users, items: items, queries: queries, monitoring: monitoring}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Sharecircle backend is running"))
}

// Stats returns the last heartbeat snapshot.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	if h.monitoring == nil {
		writeJSON(w, http.StatusOK, observability.MonitoringStats{})
		return
	}
	writeJSON(w, http.StatusOK, h.monitoring.GetLatest())
}

// parseMultipart reads a multipart body of at most limit bytes and answers
// the request itself when it cannot.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64, invalidMsg string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return false
	}
	writeError(w, http.StatusBadRequest, invalidMsg)
	return false
}
