package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/catalogops/priced-catalog-service/internal/health"
	"github.com/catalogops/priced-catalog-service/internal/http/handler"
	"github.com/catalogops/priced-catalog-service/internal/http/middleware"
	"github.com/catalogops/priced-catalog-service/internal/http/response"
)

type Dependencies struct {
	ProductHandler *handler.ProductHandler
	CatalogHandler *handler.CatalogHandler
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", dep.CatalogHandler.List)
			r.Get("/rate", dep.CatalogHandler.Rate)
			r.Get("/{id}", dep.CatalogHandler.GetByID)
		})

		r.Route("/admin/products", func(r chi.Router) {
			r.Get("/", dep.ProductHandler.List)
			r.Post("/", dep.ProductHandler.Create)
			r.Get("/{id}", dep.ProductHandler.GetByID)
			r.Post("/{id}", dep.ProductHandler.Update)
			r.Delete("/{id}", dep.ProductHandler.Delete)
		})
	})

	if dep.EnableOTelHTTP {
		return otelhttp.NewHandler(r, "http.server")
	}
	return r
}
