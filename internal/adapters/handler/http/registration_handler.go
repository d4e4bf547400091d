package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

type RegistrationHandler struct {
	service ports.RegistrationService
}

func NewRegistrationHandler(service ports.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
	}
}

type meResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Voted       bool       `json:"voted"`
	Nationality string     `json:"nationality,omitempty"`
	Index       int        `json:"index,omitempty"`
	Created     *time.Time `json:"created,omitempty"`
}

// GetMe reports the caller's registration: the ballot id to echo on
// submission, and the vote placement once finalized.
func (h *RegistrationHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	record, err := h.service.Lookup(r.Context(), identity)
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			http.Error(w, "identity not registered", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch registration: "+err.Error(), http.StatusInternalServerError)
		return
	}

	res := meResponse{
		ID:    record.ID,
		Email: record.Email,
		Voted: record.Finalized(),
	}
	if record.Finalized() {
		res.Nationality = record.Nationality
		res.Index = record.Index
		res.Created = record.Created
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
