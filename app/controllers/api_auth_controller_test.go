package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/internal/pkg/ocr"
	"github.com/pictotext/pictotext/internal/pkg/session"
)

func newAuthTestApp(t *testing.T) *fiber.App {
	t.Helper()

	setupControllers(t, stubOCR{result: &ocr.Result{}})
	session.NewSessionStore()

	app := fiber.New()
	app.Post("/api/register", HandleAPIRegister)
	app.Post("/api/login", HandleAPILogin)
	app.Post("/api/logout", HandleAPILogout)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAPIRegisterUnpaidEmailGets402(t *testing.T) {
	app := newAuthTestApp(t)

	resp := postJSON(t, app, "/api/register", map[string]string{
		"username": "api_newcomer",
		"email":    "api-unpaid@example.com",
		"password": "password-123",
	})
	require.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	data := decodeBody(t, resp)
	assert.Equal(t, "Payment required to create premium account.", data["error"])
	assert.Equal(t, true, data["requiresPayment"])
	assert.Equal(t, "api-unpaid@example.com", data["email"])
}

func TestAPIRegisterPaidEmailCreatesAccount(t *testing.T) {
	app := newAuthTestApp(t)

	repos := setupControllers(t, stubOCR{result: &ocr.Result{}})
	require.NoError(t, repos.PremiumListing.Upsert(&models.PremiumListing{
		Email:  "api-paid@example.com",
		Status: models.LISTING_STATUS_ACTIVE,
	}))

	resp := postJSON(t, app, "/api/register", map[string]string{
		"username": "api_paid_user",
		"email":    "api-paid@example.com",
		"password": "password-123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "api_paid_user", user["username"])
	assert.Equal(t, "api-paid@example.com", user["email"])
}

func TestAPIRegisterValidatesInput(t *testing.T) {
	app := newAuthTestApp(t)

	resp := postJSON(t, app, "/api/register", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAPILoginWrongCredentials(t *testing.T) {
	app := newAuthTestApp(t)

	resp := postJSON(t, app, "/api/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever-long",
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	data := decodeBody(t, resp)
	assert.Equal(t, "Invalid credentials", data["error"])
}

func TestAPILoginSucceedsForCreatedAccount(t *testing.T) {
	app := newAuthTestApp(t)

	repos := setupControllers(t, stubOCR{result: &ocr.Result{}})
	require.NoError(t, repos.PremiumListing.Upsert(&models.PremiumListing{
		Email:  "api-login@example.com",
		Status: models.LISTING_STATUS_ACTIVE,
	}))

	resp := postJSON(t, app, "/api/register", map[string]string{
		"username": "api_login_user",
		"email":    "api-login@example.com",
		"password": "password-123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	loginResp := postJSON(t, app, "/api/login", map[string]string{
		"email":    "api-login@example.com",
		"password": "password-123",
	})
	require.Equal(t, fiber.StatusOK, loginResp.StatusCode)

	data := decodeBody(t, loginResp)
	assert.Equal(t, true, data["success"])
}

func TestAPITokenDisabledWithoutSecret(t *testing.T) {
	setupControllers(t, stubOCR{result: &ocr.Result{}})
	tokenService = nil

	app := fiber.New()
	app.Post("/api/token", HandleAPIToken)

	req := httptest.NewRequest(http.MethodPost, "/api/token", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
