package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/delivery/http/handler"
	"github.com/user/invite-harvester/internal/delivery/http/middleware"
	"github.com/user/invite-harvester/pkg/metrics"
)

func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		// Publishing waits on the model and WordPress, so it gets the longer budget.
		r.With(chimw.Timeout(30*time.Second)).Post("/harvest", h.HandleSubmitHarvest)
		r.With(chimw.Timeout(30*time.Second)).Get("/runs/{id}", h.HandleGetRun)
		r.With(chimw.Timeout(3*time.Minute)).Post("/runs/{id}/publish", h.HandlePublish)
	})

	return r
}
