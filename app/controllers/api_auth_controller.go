package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pictotext/pictotext/internal/pkg/provisioning"
	"github.com/pictotext/pictotext/internal/pkg/quota"
	"github.com/pictotext/pictotext/internal/pkg/session"
	"github.com/pictotext/pictotext/internal/pkg/usercontext"
	"github.com/pictotext/pictotext/internal/pkg/utils"
)

var validate = validator.New()

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleAPIRegister creates an account for paid emails. Unpaid emails get
// 402 with the pending signup parked until their payment confirms.
func HandleAPIRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username, email and a password of at least 8 characters are required"})
	}

	outcome, err := provisioningSvc.Register(session.SessionID(c), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, provisioning.ErrDuplicateUsername):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username already exists"})
		case errors.Is(err, provisioning.ErrDuplicateEmail):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email already registered"})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if outcome.PaymentRequired {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":           "Payment required to create premium account.",
			"requiresPayment": true,
			"email":           outcome.Email,
		})
	}

	// Automatically log in the user after registration
	if err := startSession(c, outcome.User.ID, outcome.User.Username); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session save failed"})
	}

	return c.JSON(fiber.Map{
		"message": "Premium account created successfully",
		"user": fiber.Map{
			"id":       outcome.User.ID,
			"username": outcome.User.Username,
			"email":    outcome.User.Email,
		},
	})
}

func HandleAPILogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	user, err := provisioningSvc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, provisioning.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Login failed"})
	}

	if err := startSession(c, user.ID, user.Username); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session save failed"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

func HandleAPILogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleAPIUser returns the authenticated account with its monthly usage.
func HandleAPIUser(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := userRepo().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	monthly, err := premiumTracker.Monthly(user.ID)
	if err != nil {
		monthly = user.MonthlyUsage
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":                user.ID,
			"username":          user.Username,
			"email":             user.Email,
			"monthlyUsageCount": monthly,
			"monthlyLimit":      quota.PremiumMonthlyLimit,
			"isPremium":         true,
			"avatarUrl":         utils.GetGravatarURL(user.Email, 200),
		},
	})
}

// HandleAPIToken issues a bearer token for programmatic use of the API.
func HandleAPIToken(c *fiber.Ctx) error {
	if tokenService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "API tokens are not enabled on this server",
		})
	}

	userCtx := usercontext.GetUserContext(c)
	token, err := tokenService.Generate(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token generation failed"})
	}

	return c.JSON(fiber.Map{
		"token":     token,
		"expiresIn": int(securityTokenTTLSeconds()),
	})
}
