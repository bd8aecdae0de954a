package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/codigarte/codigarte/app/controllers"
	"github.com/codigarte/codigarte/internal/pkg/env"
	"github.com/codigarte/codigarte/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") ||
				strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleIndex)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)

	group.Get("/dashboard", middleware.RequireAuth, controllers.HandleDashboard)

	// Learning content
	group.Get("/modules", middleware.RequireAuth, controllers.HandleModules)
	group.Get("/module/:id", middleware.RequireAuth, controllers.HandleModuleDetail)
	group.Get("/exercises", middleware.RequireAuth, controllers.HandleExerciseList)
	group.Get("/exercise/:id", middleware.RequireAuth, controllers.HandleExerciseDetail)
	group.Get("/next-exercise/:id", middleware.RequireAuth, controllers.HandleNextExercise)
	group.Get("/premium-content", middleware.RequireAuth, controllers.HandlePremiumContent)

	// Store and purchases
	group.Get("/store", middleware.RequireAuth, controllers.HandleStore)
	group.Get("/payment-success", middleware.RequireAuth, controllers.HandlePaymentSuccess)
	group.Get("/purchases", middleware.RequireAuth, controllers.HandleTransactionHistory)
	group.Get("/transaction/:publicID", middleware.RequireAuth, controllers.HandleTransactionDetail)
}
