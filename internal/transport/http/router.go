package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-consult-nosql/internal/application/consultation"
	"github.com/go-consult-nosql/internal/application/verification"
	"github.com/go-consult-nosql/internal/config"
	"github.com/go-consult-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-consult-nosql/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	verificationSvc := verification.NewService(deps.IdentityRepo, deps.CodeSender, deps.Metrics)
	consultationSvc := consultation.NewService(deps.ConsultationRepo, verificationSvc, deps.Metrics)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(verificationSvc)
	consultH := handler.NewConsultationHandler(consultationSvc)

	// 5 requests/second, burst of 10 — applied to booking creation.
	bookingRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Post("/auth/{action}", authH.Action)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Identity)

			r.Get("/consultations", consultH.List)
			r.With(bookingRL.Limit).Post("/consultations", consultH.Create)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
