package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/codigarte/codigarte/app/controllers"
	"github.com/codigarte/codigarte/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Session-authenticated JSON endpoints
	api.Get("/lives", middleware.RequireAPISessionAuth, controllers.HandleLivesStatus)
	api.Post("/check-answer", middleware.RequireAPISessionAuth, controllers.HandleCheckAnswer)
	api.Post("/checkout/subscription", middleware.RequireAPISessionAuth, controllers.HandleCreateSubscriptionCheckout)
	api.Post("/checkout/lives/:quantity", middleware.RequireAPISessionAuth, controllers.HandleCreateLivesCheckout)
	api.Post("/cancel-subscription", middleware.RequireAPISessionAuth, controllers.HandleCancelSubscription)
	api.Post("/refund-lives/:publicID", middleware.RequireAPISessionAuth, controllers.HandleLivesRefund)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
