package http

import (
	"context"
	"net/http"

	"github.com/alumni-registry/internal/application/contact"
	"github.com/alumni-registry/internal/application/document"
	"github.com/alumni-registry/internal/application/registration"
	"github.com/alumni-registry/internal/config"
	"github.com/alumni-registry/internal/domain"
	"github.com/alumni-registry/internal/transport/http/handler"
	appmiddleware "github.com/alumni-registry/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
// Publisher, IDTokenVerifier and TokenVerifier are optional.
type Deps struct {
	PendingRepo     PendingRepository
	OTPRepo         OTPRepository
	DocumentRepo    DocumentRepository
	ObjectStore     ObjectStore
	Mailer          Mailer
	Publisher       Publisher
	Sealer          Sealer
	Backend         AccountBackend
	IDTokenVerifier IDTokenVerifier
	TokenVerifier   TokenVerifier
}

// NewRouter builds and returns the application router. ctx bounds the
// rate limiters' background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.CleanupTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.TokenVerifier != nil {
		authMw = appmiddleware.Auth(deps.TokenVerifier)
	} else {
		// Without a public key no bearer token can be checked, so protected routes stay closed.
		authMw = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"message":"authentication not configured","code":"unauthorized"}`, http.StatusUnauthorized)
			})
		}
	}

	// 5 requests/second, burst of 10, applied to public endpoints that send mail or create state.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	registrationSvc := registration.NewService(registration.ServiceDeps{
		PendingRepo:     deps.PendingRepo,
		OTPRepo:         deps.OTPRepo,
		Mailer:          deps.Mailer,
		Sealer:          deps.Sealer,
		Backend:         deps.Backend,
		IDTokenVerifier: deps.IDTokenVerifier,
		PendingTTL:      cfg.PendingTTL,
		OTPTTL:          cfg.OTPTTL,
	})
	documentSvc := document.NewService(deps.ObjectStore, deps.DocumentRepo)
	contactSvc := contact.NewService(contact.ServiceDeps{
		Publisher: deps.Publisher,
		TopicARN:  cfg.ContactTopicARN,
		Mailer:    deps.Mailer,
		Inbox:     cfg.ContactInbox,
	})

	healthH := handler.NewHealthHandler()
	registrationH := handler.NewRegistrationHandler(registrationSvc)
	documentH := handler.NewDocumentHandler(documentSvc)
	contactH := handler.NewContactHandler(contactSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/register", registrationH.Register)
			r.With(sensitiveRL.Limit).Post("/resend-otp", registrationH.ResendOTP)
			r.With(sensitiveRL.Limit).Post("/verify-otp", registrationH.VerifyOTP)
			r.With(sensitiveRL.Limit).Post("/verify-oauth", registrationH.VerifyOAuth)
			r.With(appmiddleware.RequireToken(cfg.CleanupToken)).Post("/cleanup", registrationH.Cleanup)
		})
		r.With(sensitiveRL.Limit).Post("/contact", contactH.Submit)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/documents", documentH.Upload)
			r.Get("/documents", documentH.List)
			r.Get("/documents/{id}", documentH.Get)
			r.Delete("/documents/{id}", documentH.Delete)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/admin/cleanup", registrationH.Cleanup)
			})
		})
	})

	return r
}
