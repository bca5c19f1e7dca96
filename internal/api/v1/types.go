package apiv1

import "github.com/gofiber/fiber/v2"

// Pong is the response body of the ping endpoint.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists the operations the versioned API exposes. The
// handlers live on APIServer; the router binds them via RegisterHandlers.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	PostExtractText(c *fiber.Ctx) error
	GetUsage(c *fiber.Ctx) error
	GetUserProfile(c *fiber.Ctx) error
	GetHistory(c *fiber.Ctx) error
}
