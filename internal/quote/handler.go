package quote

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/devispro/devispro/internal/platform/httpx"
	"github.com/devispro/devispro/internal/shared"
)

// Handler serves the quotation JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a quotation handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers quotation routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/margins", h.margins)

		r.Put("/{id}/surface", h.updateSurface)
		r.Put("/{id}/labor-price", h.updateLaborPrice)
		r.Put("/{id}/line-price", h.updateLinePrice)
		r.Put("/{id}/security-percent", h.updateSecurityPercent)
		r.Put("/{id}/laborers", h.updateLaborerCount)
		r.Post("/{id}/toggle", h.toggle)
		r.Post("/{id}/toggle-line", h.toggleLine)
		r.Put("/{id}/discount", h.setDiscount)
		r.Put("/{id}/deposit", h.setDeposit)

		r.Post("/{id}/submit", h.submit)
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/accept", h.accept)
		r.Post("/{id}/refuse", h.refuse)
		r.Post("/{id}/cancel", h.cancel)
		r.Post("/{id}/reopen", h.reopen)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		httpx.JSON(w, http.StatusBadRequest, map[string]any{
			"title":  "Validation Failed",
			"status": http.StatusBadRequest,
			"fields": fields,
		})
		return false
	}
	return true
}

func (h *Handler) respondMutation(w http.ResponseWriter, q *Quotation, notices []Notice, err error) {
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"title":  "Submission Rejected",
				"status": http.StatusUnprocessableEntity,
				"errors": verr.Errors,
			})
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuotationResponse(q, notices))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.Create(r.Context(), req.toCreateRequest())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "No Matching Template", err.Error())
			return
		}
		h.logger.Error("create quotation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newQuotationResponse(q, notices))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{Limit: 20}
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v := r.URL.Query().Get("chantier_id"); v != "" {
		req.ChantierID = &v
	}
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	req.Offset = (page - 1) * req.Limit

	summaries, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotations": summaries,
		"pagination": shared.NewPagination(page, req.Limit, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuotationResponse(q, nil))
}

func (h *Handler) margins(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.MarginView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) updateSurface(w http.ResponseWriter, r *http.Request) {
	var req NodeEditRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.UpdateSurface(r.Context(), chi.URLParam(r, "id"), req.Path, req.Value)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) updateLaborPrice(w http.ResponseWriter, r *http.Request) {
	var req NodeEditRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.UpdateLaborPrice(r.Context(), chi.URLParam(r, "id"), req.Path, req.Value)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) updateLinePrice(w http.ResponseWriter, r *http.Request) {
	var req LineEditRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.UpdateLinePrice(r.Context(), chi.URLParam(r, "id"), req.Path, req.LineIndex, req.Value)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) updateSecurityPercent(w http.ResponseWriter, r *http.Request) {
	var req LineEditRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.UpdateSecurityPercent(r.Context(), chi.URLParam(r, "id"), req.Path, req.LineIndex, req.Value)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) updateLaborerCount(w http.ResponseWriter, r *http.Request) {
	var req CountEditRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.UpdateLaborerCount(r.Context(), chi.URLParam(r, "id"), req.Path, req.Count)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	var req TogglePathRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.Toggle(r.Context(), chi.URLParam(r, "id"), req.Path)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) toggleLine(w http.ResponseWriter, r *http.Request) {
	var req ToggleLineRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.ToggleLinkedProduct(r.Context(), chi.URLParam(r, "id"), req.Path, req.LineIndex)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.SetDiscount(r.Context(), chi.URLParam(r, "id"), req.Mode, req.Value)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) setDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, notices, err := h.service.SetDeposit(r.Context(), chi.URLParam(r, "id"), req.Mode, req.Value)
	h.respondMutation(w, q, notices, err)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(string) (*Quotation, error)) {
	q, err := fn(chi.URLParam(r, "id"))
	h.respondMutation(w, q, nil, err)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) (*Quotation, error) { return h.service.Submit(r.Context(), id) })
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) (*Quotation, error) { return h.service.Send(r.Context(), id) })
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) (*Quotation, error) { return h.service.Accept(r.Context(), id) })
}

func (h *Handler) refuse(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) (*Quotation, error) { return h.service.Refuse(r.Context(), id) })
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) (*Quotation, error) { return h.service.Cancel(r.Context(), id) })
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) (*Quotation, error) { return h.service.Reopen(r.Context(), id) })
}
