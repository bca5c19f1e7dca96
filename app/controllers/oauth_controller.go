package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
)

// HandleOAuthCallback completes the provider flow. Known accounts are signed
// in, paid emails get an account on the spot, everyone else is sent to the
// payment page first.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	displayName := u.Name
	if displayName == "" {
		displayName = u.NickName
	}

	outcome, err := provisioningSvc.OAuthSignIn(u.Provider, u.UserID, u.Email, displayName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("sign-in failed: %v", err))
	}

	if outcome.NeedsPayment {
		fm := fiber.Map{
			"type":    "info",
			"message": "Your Google account is verified. Complete the payment to finish signing up.",
		}
		return flash.WithInfo(c, fm).Redirect("/premium?email=" + outcome.Email)
	}

	if err := startSession(c, outcome.User.ID, outcome.User.Username); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	// Ensure HTMX boosted flows perform a full redirect
	c.Set("HX-Redirect", "/")
	return c.Redirect("/", fiber.StatusSeeOther)
}
