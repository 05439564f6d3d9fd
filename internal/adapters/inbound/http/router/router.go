package router

import (
	"log"
	"net/http"

	"cryptosub/internal/adapters/inbound/http/controllers"
	"cryptosub/internal/adapters/inbound/http/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	HealthController   *controllers.HealthController
	SwaggerController  *controllers.SwaggerController
	CatalogController  *controllers.CatalogController
	PaymentsController *controllers.PaymentsController
	AdminController    *controllers.AdminController
	AdminJWTSecret     string
	// MetricsHandler defaults to the global Prometheus registry.
	MetricsHandler http.Handler
	Logger         *log.Logger
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Get("/healthz", deps.HealthController.GetHealth)
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Get("/swagger", deps.SwaggerController.RedirectToIndex)
	r.Get("/swagger/openapi.yaml", deps.SwaggerController.GetOpenAPISpec)
	r.Get("/swagger/*", deps.SwaggerController.ServeUI)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/currencies", deps.CatalogController.ListCurrencies)
		v1.Get("/users/{userID}/subscription", deps.CatalogController.GetUserSubscription)

		v1.Post("/payments", deps.PaymentsController.CreatePayment)
		v1.Get("/payments/{paymentID}", deps.PaymentsController.GetPayment)
		v1.Post("/payments/{paymentID}/verify", deps.PaymentsController.VerifyPayment)

		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminAuth(deps.AdminJWTSecret, deps.Logger))
			admin.Post("/admin/payments/{paymentID}/complete", deps.AdminController.CompletePayment)
			admin.Post("/admin/payments/{paymentID}/cancel", deps.AdminController.CancelPayment)
		})
	})

	return r
}
