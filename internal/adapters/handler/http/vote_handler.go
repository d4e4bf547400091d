package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type submitVoteRequest struct {
	Email       string         `json:"email,omitempty"`
	ID          uuid.UUID      `json:"id"`
	Nationality string         `json:"nationality"`
	Answers     domain.Answers `json:"answers"`
}

// Submit godoc
// @Summary      Casts the caller's vote
// @Description  Finalizes the registered ballot of the authenticated identity. The ballot id must match the one returned by `/api/me`.
// @Tags         votes
// @Accept       json
// @Success      204
// @Failure      403
// @Failure      406
// @Failure      409
// @Router       /api/votes [post]
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req submitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// A payload email is allowed only when it names the session identity.
	if req.Email != "" && domain.NormalizeEmail(req.Email) != identity {
		http.Error(w, "payload email does not match the authenticated identity", http.StatusForbidden)
		return
	}

	input := ports.SubmitInput{
		Email:       identity,
		ID:          req.ID,
		Nationality: req.Nationality,
		Answers:     req.Answers,
	}

	if err := h.service.Submit(r.Context(), input); err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if errors.Is(err, domain.ErrNotAcceptable) {
			http.Error(w, err.Error(), http.StatusNotAcceptable)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
