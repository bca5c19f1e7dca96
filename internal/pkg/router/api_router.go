package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pictotext/pictotext/app/controllers"
	apiv1 "github.com/pictotext/pictotext/internal/api/v1"
	"github.com/pictotext/pictotext/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 60}))
	api.Use(middleware.BearerAuth(controllers.TokenService()))

	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "PictoText API",
		})
	})

	// Account lifecycle
	api.Post("/register", controllers.HandleAPIRegister)
	api.Post("/login", controllers.HandleAPILogin)
	api.Post("/logout", controllers.HandleAPILogout)
	api.Get("/user", middleware.RequireAPISessionAuth, controllers.HandleAPIUser)
	api.Post("/token", middleware.RequireAPISessionAuth, controllers.HandleAPIToken)

	// Extraction and quota
	api.Post("/extract-text", controllers.HandleExtractText)
	api.Get("/usage", controllers.HandleUsage)
	api.Get("/history", middleware.RequireAPISessionAuth, controllers.HandleHistory)

	// Payments
	api.Post("/payment/paypal", controllers.HandlePayPalPayment)
	api.Get("/paypal/setup", controllers.HandlePayPalSetup)
	api.Post("/paypal/order", controllers.HandlePayPalCreateOrder)
	api.Post("/paypal/order/:orderID/capture", controllers.HandlePayPalCaptureOrder)

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
