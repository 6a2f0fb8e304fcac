package chantier

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devispro/devispro/internal/platform/httpx"
)

// Handler serves chantier lookup for the wizard's site-selection step.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a chantier handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers chantier routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/chantiers", h.List)
	r.Get("/chantiers/{id}", h.Show)
}

// List returns active chantiers, optionally filtered by a search query over
// name, description, address and owner name.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	chantiers, err := h.repo.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list chantiers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"chantiers": chantiers})
}

// Show returns one chantier with its owner.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
