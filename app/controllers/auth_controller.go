package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/pictotext/pictotext/internal/pkg/hcaptcha"
	"github.com/pictotext/pictotext/internal/pkg/provisioning"
	"github.com/pictotext/pictotext/internal/pkg/session"
	"github.com/pictotext/pictotext/internal/pkg/usercontext"
)

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{
			"type": "error",
		}

		// notice: do not tell the visitor whether the email or the
		// password was wrong
		user, err := provisioningSvc.Login(c.FormValue("email"), c.FormValue("password"))
		if err != nil {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if err := startSession(c, user.ID, user.Username); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		fm = fiber.Map{
			"type":    "success",
			"message": "Welcome back!",
		}

		return flash.WithSuccess(c, fm).Redirect("/")
	}

	return c.Render("login", fiber.Map{
		"Title":      "Sign In",
		"IsLoggedIn": isLoggedIn(c),
		"Flash":      flash.Get(c),
		"CSRFToken":  csrfToken(c),
	})
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{
			"type": "error",
		}

		if hcaptcha.Enabled() {
			if ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response")); err != nil || !ok {
				fm["message"] = "Captcha verification failed, please try again"

				return flash.WithError(c, fm).Redirect("/register")
			}
		}

		outcome, err := provisioningSvc.Register(
			session.SessionID(c),
			c.FormValue("username"),
			c.FormValue("email"),
			c.FormValue("password"),
		)
		if err != nil {
			switch {
			case errors.Is(err, provisioning.ErrDuplicateUsername):
				fm["message"] = "This username is already taken"
			case errors.Is(err, provisioning.ErrDuplicateEmail):
				fm["message"] = "An account with this email already exists"
			default:
				fm["message"] = "Registration failed, please check your input"
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		if outcome.PaymentRequired {
			fm = fiber.Map{
				"type":    "info",
				"message": "Almost there! Complete your payment to activate the account.",
			}

			return flash.WithInfo(c, fm).Redirect("/premium?email=" + outcome.Email)
		}

		fm = fiber.Map{
			"type":    "success",
			"message": "Account created! You can sign in now.",
		}

		return flash.WithSuccess(c, fm).Redirect("/login")
	}

	return c.Render("register", fiber.Map{
		"Title":      "Create Account",
		"IsLoggedIn": isLoggedIn(c),
		"Flash":      flash.Get(c),
		"CSRFToken":  csrfToken(c),
	})
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "You are signed out",
	}

	return flash.WithSuccess(c, fm).Redirect("/login")
}

// endSession drops the caller's session, forcing re-authentication.
func endSession(c *fiber.Ctx) {
	store := session.GetSessionStore()
	if store == nil {
		return
	}
	if sess, err := store.Get(c); err == nil {
		_ = sess.Destroy()
	}
}

// startSession writes the authenticated user into a fresh session.
func startSession(c *fiber.Ctx, userID uint, username string) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, userID)
	sess.Set(usercontext.KeyUsername, username)

	return sess.Save()
}
