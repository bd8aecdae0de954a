package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codigarte/codigarte/internal/pkg/middleware"
	"github.com/codigarte/codigarte/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; this middleware
	// just passes through so the route table reads uniformly.
	return c.Next()
}
