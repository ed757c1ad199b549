// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"net/http"

	"healthmate/internal/app"
	"healthmate/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Services are the application services the HTTP adapter drives.
type Services struct {
	Auth          *app.AuthService
	Users         *app.UserService
	Steps         *app.MetricService[domain.StepRecord]
	Sleep         *app.MetricService[domain.SleepRecord]
	HeartRate     *app.MetricService[domain.HeartRateRecord]
	SpO2          *app.MetricService[domain.SpO2Record]
	BloodPressure *app.MetricService[domain.BloodPressureRecord]
	Rollup        *app.RollupService
	Subscriptions *app.SubscriptionService
	Dashboard     *app.DashboardService
	Conversations *app.ConversationService
	Problems      *app.ProblemService
}

// OAuthFlow is the browser authorization-code flow of an OAuth provider.
type OAuthFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.Identity, error)
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc         Services
	log         *zap.Logger
	corsOrigins []string
	googleWeb   OAuthFlow
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed cross-origin callers.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithGoogleWebFlow enables the browser sign-in routes for Google.
func WithGoogleWebFlow(f OAuthFlow) Option {
	return func(s *Server) { s.googleWeb = f }
}

// New creates a Server wired to the given application services.
func New(svc Services, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, log: log, corsOrigins: []string{"*"}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		r.Route("/auth", s.authRoutes)
		r.Post("/subscription/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			mountMetric(r, s, s.svc.Steps)
			mountMetric(r, s, s.svc.Sleep)
			mountMetric(r, s, s.svc.HeartRate)
			mountMetric(r, s, s.svc.SpO2)
			mountMetric(r, s, s.svc.BloodPressure)
			r.Put("/steps/set-target", s.handleSetTarget)
			r.Get("/heart-rate/zones", s.handleHeartRateZones)
			r.Get("/blood-pressure/zones", s.handleBloodPressureZones)
			r.Get("/health-data", s.handleRollup)

			r.Route("/subscription", func(r chi.Router) {
				r.Post("/initialize", s.handleSubscriptionInitialize)
				r.Post("/checkout", s.handleCheckout)
				r.Get("/success", s.handleCheckoutSuccess)
				r.Get("/cancel", s.handleCheckoutCancel)
				r.Put("/renew", s.handleRenew)
				r.Get("/details", s.handleSubscriptionDetails)
			})

			r.Post("/conversations", s.handleSaveConversation)
			r.Get("/conversations", s.handleListConversations)

			r.Get("/user/me", s.handleMe)
			r.Put("/user/settings", s.handleUpdateSettings)

			r.Post("/problem/report", s.handleProblemReport)

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/users", s.handleDashboardUsers)
				r.Get("/users/{userID}", s.handleDashboardUser)
				r.Delete("/conversations/{conversationID}", s.handleDeleteConversation)
			})
		})
	})

	return withNoCache(r)
}
