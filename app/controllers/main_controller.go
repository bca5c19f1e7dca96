package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/pictotext/pictotext/internal/pkg/quota"
)

func HandleStart(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":      "Image to Text Converter",
		"IsLoggedIn": isLoggedIn(c),
		"Username":   ExtractUsername(c),
		"Flash":      flash.Get(c),
		"FreeLimit":  quota.FreeDailyLimit,
	})
}

// HandlePremium shows the upgrade page with the PayPal form. The email query
// parameter carries over from a parked registration.
func HandlePremium(c *fiber.Ctx) error {
	return c.Render("premium", fiber.Map{
		"Title":        "Go Premium",
		"IsLoggedIn":   isLoggedIn(c),
		"Flash":        flash.Get(c),
		"Email":        c.Query("email"),
		"MonthlyLimit": quota.PremiumMonthlyLimit,
	})
}

func HandleTerms(c *fiber.Ctx) error {
	return c.Render("terms", fiber.Map{
		"Title":      "Terms of Service",
		"IsLoggedIn": isLoggedIn(c),
	})
}

func HandlePrivacy(c *fiber.Ctx) error {
	return c.Render("privacy", fiber.Map{
		"Title":      "Privacy Policy",
		"IsLoggedIn": isLoggedIn(c),
	})
}

func HandleRefundPolicy(c *fiber.Ctx) error {
	return c.Render("refund-policy", fiber.Map{
		"Title":      "Refund Policy",
		"IsLoggedIn": isLoggedIn(c),
	})
}

// HandleDocsAPI redirects to the served OpenAPI document.
func HandleDocsAPI(c *fiber.Ctx) error {
	return c.Redirect("/docs/api/v1", fiber.StatusFound)
}
