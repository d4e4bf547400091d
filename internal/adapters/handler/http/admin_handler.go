package http

import (
	"encoding/json"
	"net/http"

	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

type AdminHandler struct {
	service    ports.VoteService
	adminEmail string
}

func NewAdminHandler(service ports.VoteService, adminEmail string) *AdminHandler {
	return &AdminHandler{
		service:    service,
		adminEmail: domain.NormalizeEmail(adminEmail),
	}
}

// ExportVotes dumps every record, including ballot ids and consents. Only
// the configured admin identity may call it.
func (h *AdminHandler) ExportVotes(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}
	if h.adminEmail == "" || identity != h.adminEmail {
		http.Error(w, "admin access required", http.StatusForbidden)
		return
	}

	records, err := h.service.ExportAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
