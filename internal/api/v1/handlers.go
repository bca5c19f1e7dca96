package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/pictotext/pictotext/app/controllers"
	"github.com/pictotext/pictotext/internal/pkg/middleware"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostExtractText runs OCR on an uploaded image. Anonymous callers count
// against the daily free allowance, authenticated callers against the
// monthly premium allowance.
func (s *APIServer) PostExtractText(c *fiber.Ctx) error {
	return controllers.HandleExtractText(c)
}

// GetUsage reports the caller's current quota consumption.
func (s *APIServer) GetUsage(c *fiber.Ctx) error {
	return controllers.HandleUsage(c)
}

// GetUserProfile returns account information for the authenticated user.
// Security is enforced via the bearer token middleware attached in the router.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleAPIUser(c)
}

// GetHistory lists the authenticated user's past extractions, newest first.
func (s *APIServer) GetHistory(c *fiber.Ctx) error {
	return controllers.HandleHistory(c)
}

// RegisterHandlers binds the versioned API operations onto the given router
// group. Authenticated operations get the session guard; bearer tokens are
// honored by middleware installed one level up.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Post("/extract-text", si.PostExtractText)
	router.Get("/usage", si.GetUsage)
	router.Get("/user", middleware.RequireAPISessionAuth, si.GetUserProfile)
	router.Get("/history", middleware.RequireAPISessionAuth, si.GetHistory)
}
