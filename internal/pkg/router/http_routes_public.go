package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/pictotext/pictotext/app/controllers"
	"github.com/pictotext/pictotext/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/docs/api", loggedInMiddleware, controllers.HandleDocsAPI)

	// Static pages
	app.Get("/terms", loggedInMiddleware, controllers.HandleTerms)
	app.Get("/privacy", loggedInMiddleware, controllers.HandlePrivacy)
	app.Get("/refund-policy", loggedInMiddleware, controllers.HandleRefundPolicy)
	app.Get("/premium", loggedInMiddleware, controllers.HandlePremium)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
}
