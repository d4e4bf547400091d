package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worldvote/api/internal/core/domain"
	"github.com/worldvote/api/internal/core/ports"
)

type RankingHandler struct {
	service ports.RankingService
}

func NewRankingHandler(service ports.RankingService) *RankingHandler {
	return &RankingHandler{
		service: service,
	}
}

// GetRankings godoc
// @Summary      Lists countries ranked by vote count
// @Description  Returns the global stats snapshot: total votes and all countries ordered by total, each with its five most recent votes.
// @Tags         rankings
// @Produce      json
// @Success      200
// @Router       /api/rankings [get]
func (h *RankingHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Stats()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *RankingHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "missing country code", http.StatusBadRequest)
		return
	}

	ranking, err := h.service.FindCountry(code)
	if err != nil {
		if errors.Is(err, domain.ErrCountryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ranking); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
