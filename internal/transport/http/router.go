package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/eloity/tiergate/internal/application/kyc"
	"github.com/eloity/tiergate/internal/application/reward"
	"github.com/eloity/tiergate/internal/application/tier"
	"github.com/eloity/tiergate/internal/application/twofactor"
	"github.com/eloity/tiergate/internal/config"
	"github.com/eloity/tiergate/internal/domain"
	"github.com/eloity/tiergate/internal/transport/http/handler"
	appmiddleware "github.com/eloity/tiergate/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10; applied to code-verification endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	tierSvc := tier.NewService(deps.ProfileRepo, deps.GateRepo, deps.HistoryRepo)
	twoFactorSvc := twofactor.NewService(twofactor.ServiceDeps{
		Enrollments: deps.TwoFactorRepo,
		Codes:       deps.VerificationRepo,
		Mailer:      deps.Mailer,
		SMS:         deps.SMSSender,
		TOTPIssuer:  cfg.TOTPIssuer,
	})
	rewardSvc := reward.NewService(deps.RewardRepo)
	kycSvc := kyc.NewService(deps.DocumentStore, deps.ProfileRepo, tierSvc)

	healthH := handler.NewHealthHandler()
	tierH := handler.NewTierHandler(tierSvc)
	twoFactorH := handler.NewTwoFactorHandler(twoFactorSvc)
	rewardH := handler.NewRewardHandler(rewardSvc)
	kycH := handler.NewKYCHandler(kycSvc)
	gatesH := handler.NewFeatureGateHandler(deps.GateRepo)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/tier/current", tierH.Current)
			r.Get("/tier/access-summary", tierH.AccessSummary)
			r.Post("/tier/check-access", tierH.CheckAccess)
			r.Post("/tier/upgrade-after-kyc", tierH.UpgradeAfterKYC)
			r.Get("/tier/features", tierH.Features)

			r.Post("/2fa/setup", twoFactorH.Setup)
			r.Post("/2fa/confirm", twoFactorH.Confirm)
			r.With(sensitiveRL.Limit).Post("/2fa/challenge", twoFactorH.Challenge)
			r.With(sensitiveRL.Limit).Post("/2fa/verify", twoFactorH.Verify)
			r.With(sensitiveRL.Limit).Post("/2fa/backup-code", twoFactorH.BackupCode)
			r.Get("/2fa/methods", twoFactorH.Methods)

			r.Post("/rewards/earn", rewardH.Earn)
			r.Post("/rewards/referral", rewardH.Referral)
			r.Get("/rewards/summary", rewardH.Summary)
			// Payouts sit behind the withdraw gate: tier 2 plus KYC.
			r.With(appmiddleware.RequireTierAccess(tierSvc, "withdraw_earnings")).
				Post("/rewards/redeem", rewardH.Redeem)

			r.Post("/kyc/documents", kycH.SubmitDocument)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/kyc/{userId}/review", kycH.Review)
				r.Get("/kyc/{userId}/document-url", kycH.DocumentURL)

				r.Get("/feature-gates", gatesH.List)
				r.Get("/feature-gates/{name}", gatesH.Get)
				r.Put("/feature-gates/{name}", gatesH.Upsert)
			})
		})
	})

	return r
}
