package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/betselot/gojo-bookings/internal/booking"
	"github.com/betselot/gojo-bookings/internal/listing"
	"github.com/betselot/gojo-bookings/internal/payment"
	"github.com/betselot/gojo-bookings/internal/transport/middleware"
	"github.com/betselot/gojo-bookings/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, listingHandler *listing.Handler, bookingHandler *booking.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway webhook: both racing channels land in the same engine,
		// so the callback shares the payments prefix
		if webhookHandler != nil {
			r.Post("/payments/webhook", webhookHandler.HandleCallback)
		}

		if listingHandler != nil {
			r.Route("/listings", func(lr chi.Router) {
				lr.Get("/", listingHandler.GetListings)
				lr.Post("/", listingHandler.CreateListing)
			})
		}

		if bookingHandler != nil {
			r.Route("/bookings", func(br chi.Router) {
				br.Post("/", bookingHandler.CreateBooking)
				br.Get("/", bookingHandler.GetBookings)
				br.Get("/{id}", bookingHandler.GetBooking)
				br.Post("/{id}/payment", bookingHandler.InitiatePayment)
			})
		}

		if paymentHandler != nil {
			r.Route("/payments", func(pr chi.Router) {
				pr.Get("/{reference}", paymentHandler.GetPayment)
				pr.Post("/{reference}/verify", paymentHandler.VerifyPayment)
			})
		}
	})
}
