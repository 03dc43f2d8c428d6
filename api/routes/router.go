package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jvidal-dev/stokage-backend/api/controllers"
	partnerapi "github.com/jvidal-dev/stokage-backend/api/controllers/partner"
	webhookapi "github.com/jvidal-dev/stokage-backend/api/controllers/webhooks"
	"github.com/jvidal-dev/stokage-backend/api/middleware"
	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/internal/partner"
	"github.com/jvidal-dev/stokage-backend/internal/promo"
	"github.com/jvidal-dev/stokage-backend/internal/slots"
	"github.com/jvidal-dev/stokage-backend/internal/units"
	"github.com/jvidal-dev/stokage-backend/internal/webhooks"
	"github.com/jvidal-dev/stokage-backend/pkg/config"
	"github.com/jvidal-dev/stokage-backend/pkg/db"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
	"github.com/jvidal-dev/stokage-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	bookingsService bookings.Service,
	promoService promo.Service,
	promoRepo promo.Repository,
	unitsRepo units.Repository,
	slotsService slots.Service,
	partnerService partner.Service,
	partnerRepo partner.Repository,
	webhookGate webhooks.Gate,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/{token}", webhookapi.Ingest(webhookGate, cfg.Webhooks, logg))
	})

	// Partner bridge. Authenticated per merchant by HMAC, not by JWT.
	r.Route("/api/partner/v1/{merchantID}", func(r chi.Router) {
		r.Use(middleware.PartnerAuth(partnerRepo, logg))
		r.Post("/availability/check", partnerapi.CheckAvailability(partnerService, logg))
		r.Post("/availability/batch", partnerapi.BatchAvailabilityLookup(partnerService, logg))
		r.Post("/bookings", partnerapi.CreateBooking(partnerService, logg))
		r.Post("/bookings/list", partnerapi.ListBookings(partnerService, logg))
		r.Get("/bookings/{bookingID}", partnerapi.GetBookingStatus(partnerService, logg))
		r.Put("/bookings/{bookingID}", partnerapi.UpdateBooking(partnerService, logg))
	})

	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.CreateBooking(bookingsService, logg))
			r.Get("/", controllers.ListBookings(bookingsService, logg))
			r.Get("/{bookingID}", controllers.GetBooking(bookingsService, logg))
			r.Post("/{bookingID}/transition", controllers.TransitionBooking(bookingsService, logg))
		})

		r.Route("/promo-codes", func(r chi.Router) {
			r.Post("/", controllers.CreatePromoCode(promoRepo, logg))
			r.Post("/validate", controllers.ValidatePromoCode(promoService, logg))
		})

		r.Route("/sites/{siteID}", func(r chi.Router) {
			r.Get("/units", controllers.ListAvailableUnits(unitsRepo, logg))
			r.Get("/slots", controllers.SlotAvailability(slotsService, logg))
		})

		r.Post("/units", controllers.CreateUnit(unitsRepo, logg))
		r.Post("/slots/generate", controllers.GenerateSlots(slotsService, partnerRepo, logg))
	})

	return r
}
