package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devispro/devispro/internal/platform/httpx"
)

// Handler exposes the product catalog for the pricing step.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/{code}", h.Show)
}

// List returns all referenced products with their tier prices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

// Show returns one product, falling back to reference defaults when the
// catalog has no record for the code.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	product, fromCatalog := h.service.Product(r.Context(), chi.URLParam(r, "code"))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product":      product,
		"from_catalog": fromCatalog,
	})
}
