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

	"github.com/pictotext/pictotext/internal/pkg/ocr"
	"github.com/pictotext/pictotext/internal/pkg/session"
)

func newPaymentTestApp(t *testing.T) *fiber.App {
	t.Helper()

	setupControllers(t, stubOCR{result: &ocr.Result{}})
	session.NewSessionStore()

	app := fiber.New()
	app.Post("/api/register", HandleAPIRegister)
	app.Post("/api/login", HandleAPILogin)
	app.Post("/api/payment/paypal", HandlePayPalPayment)

	return app
}

// postJSONWithCookies carries session cookies across requests the way a
// browser does during the pay-then-register flow.
func postJSONWithCookies(t *testing.T, app *fiber.App, path string, payload interface{}, cookies []*http.Cookie) (*http.Response, []*http.Cookie) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	merged := cookies
	for _, c := range resp.Cookies() {
		merged = append(merged, c)
	}
	return resp, merged
}

func TestPayPalPaymentWithoutPendingSignup(t *testing.T) {
	app := newPaymentTestApp(t)

	resp, _ := postJSONWithCookies(t, app, "/api/payment/paypal", map[string]string{
		"email": "walkin-payer@example.com",
	}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "Payment successful! You can now create your account.", data["message"])
	assert.Contains(t, data["paypalOrderId"], "PAYPAL_")
	assert.Nil(t, data["accountCreated"])
}

func TestPayPalPaymentRejectsMissingEmail(t *testing.T) {
	app := newPaymentTestApp(t)

	resp, _ := postJSONWithCookies(t, app, "/api/payment/paypal", map[string]string{}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPayThenRegisterFlowCreatesAccountOnPayment(t *testing.T) {
	app := newPaymentTestApp(t)

	// Step 1: registration is parked behind a 402.
	resp, cookies := postJSONWithCookies(t, app, "/api/register", map[string]string{
		"username": "flow_user",
		"email":    "flow-user@example.com",
		"password": "password-123",
	}, nil)
	require.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	// Step 2: the payment in the same session materializes the account.
	payResp, cookies := postJSONWithCookies(t, app, "/api/payment/paypal", map[string]string{
		"email": "flow-user@example.com",
	}, cookies)
	require.Equal(t, fiber.StatusOK, payResp.StatusCode)

	data := decodeBody(t, payResp)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, true, data["accountCreated"])
	assert.Equal(t, "Payment successful and account created! You can now sign in.", data["message"])

	// Step 3: the parked credentials now log in.
	loginResp, _ := postJSONWithCookies(t, app, "/api/login", map[string]string{
		"email":    "flow-user@example.com",
		"password": "password-123",
	}, cookies)
	assert.Equal(t, fiber.StatusOK, loginResp.StatusCode)
}

func TestPaymentThenSeparateRegisterSucceeds(t *testing.T) {
	app := newPaymentTestApp(t)

	// Payment from a session with no parked signup only allow-lists the email.
	payResp, _ := postJSONWithCookies(t, app, "/api/payment/paypal", map[string]string{
		"email": "pay-first@example.com",
	}, nil)
	require.Equal(t, fiber.StatusOK, payResp.StatusCode)

	// A later registration from any session finds the email paid.
	regResp, _ := postJSONWithCookies(t, app, "/api/register", map[string]string{
		"username": "pay_first_user",
		"email":    "pay-first@example.com",
		"password": "password-123",
	}, nil)
	require.Equal(t, fiber.StatusOK, regResp.StatusCode)

	data := decodeBody(t, regResp)
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pay_first_user", user["username"])
}
