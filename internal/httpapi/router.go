package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"garde-booking/internal/api"
	"garde-booking/internal/auth"
	"garde-booking/internal/booking"
	"garde-booking/internal/captcha"
	"garde-booking/internal/history"
	"garde-booking/internal/portal"
	"garde-booking/internal/pricing"
	"garde-booking/pkg/config"
)

type Dependencies struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Notifier booking.Notifier
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	captchaService := captcha.NewService(captcha.NewRedisStore(deps.Redis))
	bookingRepo := booking.NewRepository(deps.DB)
	bookingService := &booking.Service{
		Store:    bookingRepo,
		Pricer:   pricing.NewCalculator(pricing.NewRateRepository(deps.DB)),
		Captcha:  captchaService,
		Notifier: deps.Notifier,
	}
	portalHandlers := portal.Handlers{Service: &portal.Service{
		Tokens:   portal.NewRepository(deps.DB),
		Bookings: bookingRepo,
		Notifier: deps.Notifier,
		BaseURL:  deps.Cfg.PortalBaseURL,
	}}
	bookingHandlers := booking.Handlers{
		Service:  bookingService,
		History:  history.NewRepository(deps.DB),
		Validate: validator.New(),
	}
	captchaHandler := captcha.Handler{Service: captchaService}
	authHandlers := auth.Handlers{Cfg: deps.Cfg}

	// v1
	r.Route("/v1", func(r chi.Router) {
		// Public endpoints serving the booking form on a separate domain.
		// Only allow CORS for explicitly configured origins.
		r.Group(func(r chi.Router) {
			r.Use(api.CORSMiddleware(api.CORSOptions{
				AllowedOrigins: deps.Cfg.AllowedOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAgeSeconds:  600,
			}))

			r.Post("/captcha", captchaHandler.Issue)
			r.Post("/bookings", bookingHandlers.Create)

			// Details-request links emailed to requesters.
			r.Get("/portal/{token}", portalHandlers.View)
			r.Post("/portal/{token}/details", portalHandlers.SubmitDetails)
		})

		r.Post("/auth/login", authHandlers.Login)

		// Admin dashboard APIs
		r.Group(func(r chi.Router) {
			r.Use(api.AdminAuth(deps.Cfg.Admin.JWTSecret))

			r.Get("/bookings", bookingHandlers.List)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Patch("/bookings/{id}/status", bookingHandlers.PatchStatus)
			r.Post("/bookings/status", bookingHandlers.BulkStatus)

			r.Post("/bookings/{id}/request-details", portalHandlers.RequestDetails)
			r.Post("/bookings/{id}/trash", bookingHandlers.Trash)
			r.Post("/bookings/{id}/restore", bookingHandlers.Restore)
			r.Post("/bookings/{id}/restored-status", bookingHandlers.RestoredStatus)
			r.Post("/bookings/{id}/archive", bookingHandlers.Archive)
			r.Post("/bookings/{id}/unarchive", bookingHandlers.Unarchive)
			r.Post("/bookings/trash", bookingHandlers.BulkTrash)
			r.Post("/bookings/restore", bookingHandlers.BulkRestore)
			r.Post("/bookings/archive", bookingHandlers.BulkArchive)
			r.Post("/bookings/unarchive", bookingHandlers.BulkUnarchive)
			r.Delete("/bookings/{id}", bookingHandlers.Delete)

			r.Get("/statuses", bookingHandlers.Statuses)
			r.Get("/statuses/{code}/transitions", bookingHandlers.Transitions)
		})
	})

	return r
}
