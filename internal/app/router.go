package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/devispro/devispro/internal/catalog"
	"github.com/devispro/devispro/internal/chantier"
	"github.com/devispro/devispro/internal/observability"
	"github.com/devispro/devispro/internal/quote"
	"github.com/devispro/devispro/internal/template"
	"github.com/devispro/devispro/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	QuoteHandler    *quote.Handler
	ChantierHandler *chantier.Handler
	CatalogHandler  *catalog.Handler
	TemplateHandler *template.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.QuoteHandler.MountRoutes(r)
		params.ChantierHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
		if params.TemplateHandler != nil {
			params.TemplateHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
