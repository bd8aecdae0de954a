package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/codigarte/codigarte/app/controllers"
	"github.com/codigarte/codigarte/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Static pages
	app.Get("/terms", loggedInMiddleware, controllers.HandleTerms)
	app.Get("/privacy", loggedInMiddleware, controllers.HandlePrivacy)
	app.Get("/withdrawal", loggedInMiddleware, controllers.HandleWithdrawal)
	app.Get("/start-now", loggedInMiddleware, controllers.HandleStartNow)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}
