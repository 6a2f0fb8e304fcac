package template

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devispro/devispro/internal/platform/httpx"
)

// Handler exposes template listing and criteria matching for the wizard's
// finishing-selection step.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a template handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers template routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/templates", h.List)
	r.Get("/templates/{id}", h.Show)
	r.Post("/templates/match", h.Match)
}

// List returns every registered template.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list templates failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// Show returns one template with its operation tree.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

// Match previews which template a set of finishing criteria resolves to,
// letting the wizard confirm before a quotation is created.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	var criteria FinishingCriteria
	if err := httpx.DecodeJSON(r, &criteria); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	tpl, err := h.service.Match(r.Context(), criteria)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}
