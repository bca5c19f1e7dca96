package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/app/repository"
	"github.com/pictotext/pictotext/internal/pkg/ocr"
	"github.com/pictotext/pictotext/internal/pkg/provisioning"
	"github.com/pictotext/pictotext/internal/pkg/quota"
	"github.com/pictotext/pictotext/internal/pkg/usercontext"
)

// stubOCR returns a fixed result, or a fixed error when err is set. The
// unavailable flag simulates an engine with no configuration at all.
type stubOCR struct {
	result      *ocr.Result
	err         error
	unavailable bool
}

func (s stubOCR) ExtractText(ctx context.Context, image []byte, filter bool) (*ocr.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s stubOCR) Available() bool {
	return !s.unavailable
}

// pngBytes is a minimal payload carrying the PNG magic number.
var pngBytes = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0}, 64)...)

// setupControllers wires the package-level services against the shared
// in-memory repositories. Tests use distinct cookies, emails and usernames so
// state left by one test cannot admit or deny another.
func setupControllers(t *testing.T, engine ocr.Service) *repository.Repositories {
	t.Helper()

	repos := repository.GetGlobalFactory().GetRepositories()
	provisioningSvc = provisioning.NewService(repos, provisioning.NewMemoryPendingStore())
	freeTracker = quota.NewFreeTracker(repos.FreeUsage)
	premiumTracker = quota.NewPremiumTracker(repos.User)
	accessGate = quota.NewGate(freeTracker, premiumTracker)
	ocrService = engine

	return repos
}

func newExtractTestApp(t *testing.T, engine ocr.Service) (*fiber.App, *repository.Repositories) {
	t.Helper()

	repos := setupControllers(t, engine)

	app := fiber.New()
	app.Post("/api/extract-text", HandleExtractText)
	app.Get("/api/usage", HandleUsage)

	return app, repos
}

// newPremiumTestApp serves the same routes behind a middleware that injects a
// logged-in user context, the way the session middleware does in production.
func newPremiumTestApp(t *testing.T, userID uint, username string) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			UserID:     userID,
			Username:   username,
			IsLoggedIn: true,
		})
		return c.Next()
	})
	app.Post("/api/extract-text", HandleExtractText)
	app.Get("/api/usage", HandleUsage)
	app.Get("/api/history", HandleHistory)

	return app
}

func premiumUserFixture(t *testing.T, repos *repository.Repositories, username, email string) *models.User {
	t.Helper()

	user, err := models.CreateUser(username, email, "secret-password-123")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))
	return user
}

func multipartImage(t *testing.T, field string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "scan.png")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func extractRequest(t *testing.T, app *fiber.App, cookieID string) *http.Response {
	t.Helper()

	body, contentType := multipartImage(t, "file", pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/extract-text", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	if cookieID != "" {
		req.AddCookie(&http.Cookie{Name: quota.FreeUserCookie, Value: cookieID})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &data))
	return data
}

func TestExtractTextFreeDailyLimit(t *testing.T) {
	engine := stubOCR{result: &ocr.Result{Text: "hello world", Confidence: 85, WordCount: 2, Engine: "ocrspace"}}
	app, _ := newExtractTestApp(t, engine)

	for i := 0; i < quota.FreeDailyLimit; i++ {
		resp := extractRequest(t, app, "device-1")
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "extraction %d should be admitted", i+1)

		data := decodeBody(t, resp)
		assert.Equal(t, "hello world", data["extractedText"])
		assert.Equal(t, float64(85), data["confidence"])
		assert.Equal(t, float64(2), data["wordCount"])
	}

	resp := extractRequest(t, app, "device-1")
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	data := decodeBody(t, resp)
	assert.Equal(t, "Daily limit of 3 free extractions exceeded. Purchase premium for 1500 monthly extractions.", data["error"])
	assert.Equal(t, true, data["limitExceeded"])
	assert.Equal(t, true, data["requiresPayment"])
	assert.Equal(t, "free", data["userType"])
}

func TestExtractTextDifferentCookiesCountSeparately(t *testing.T) {
	engine := stubOCR{result: &ocr.Result{Text: "x", Confidence: 75, WordCount: 1, Engine: "ocrspace"}}
	app, _ := newExtractTestApp(t, engine)

	for i := 0; i < quota.FreeDailyLimit; i++ {
		resp := extractRequest(t, app, "device-a")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// Same IP, different cookie starts with a fresh allowance.
	resp := extractRequest(t, app, "device-b")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestExtractTextRejectsMissingFile(t *testing.T) {
	app, _ := newExtractTestApp(t, stubOCR{result: &ocr.Result{}})

	req := httptest.NewRequest(http.MethodPost, "/api/extract-text", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExtractTextRejectsUnsupportedFormat(t *testing.T) {
	app, _ := newExtractTestApp(t, stubOCR{result: &ocr.Result{}})

	body, contentType := multipartImage(t, "file", []byte("this is not an image at all, just text"))
	req := httptest.NewRequest(http.MethodPost, "/api/extract-text", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExtractTextServiceUnavailableDoesNotConsumeQuota(t *testing.T) {
	app, _ := newExtractTestApp(t, stubOCR{err: ocr.ErrUnavailable})

	resp := extractRequest(t, app, "device-down")
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	// The failed attempt must not count against the allowance.
	ocrService = stubOCR{result: &ocr.Result{Text: "ok", Confidence: 80, WordCount: 1, Engine: "ocrspace"}}
	for i := 0; i < quota.FreeDailyLimit; i++ {
		resp := extractRequest(t, app, "device-down")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestExtractTextUnconfiguredEngineBeatsExhaustedQuota(t *testing.T) {
	engine := stubOCR{result: &ocr.Result{Text: "x", Confidence: 75, WordCount: 1, Engine: "ocrspace"}}
	app, _ := newExtractTestApp(t, engine)

	for i := 0; i < quota.FreeDailyLimit; i++ {
		resp := extractRequest(t, app, "device-outage")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// With no engine configured the outage is reported even though the
	// allowance is already spent.
	ocrService = stubOCR{unavailable: true}
	resp := extractRequest(t, app, "device-outage")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestUsageReissuesTrackingCookie(t *testing.T) {
	app, _ := newExtractTestApp(t, stubOCR{result: &ocr.Result{}})

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: quota.FreeUserCookie, Value: "device-slider"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Every call re-sets the cookie so its year-long expiry slides forward.
	var reissued *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == quota.FreeUserCookie {
			reissued = ck
		}
	}
	require.NotNil(t, reissued)
	assert.Equal(t, "device-slider", reissued.Value)
	assert.True(t, reissued.Expires.After(time.Now().Add(300*24*time.Hour)))
}

func TestExtractTextDeletedUserForcesReauth(t *testing.T) {
	_, _ = newExtractTestApp(t, stubOCR{result: &ocr.Result{Text: "x", Confidence: 75, WordCount: 1}})

	app := newPremiumTestApp(t, 987654, "ghost")

	body, contentType := multipartImage(t, "file", pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/extract-text", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	usageReq := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	usageResp, err := app.Test(usageReq, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, usageResp.StatusCode)
}

func TestUsageFreeTier(t *testing.T) {
	engine := stubOCR{result: &ocr.Result{Text: "a b", Confidence: 80, WordCount: 2, Engine: "ocrspace"}}
	app, _ := newExtractTestApp(t, engine)

	resp := extractRequest(t, app, "usage-device")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.AddCookie(&http.Cookie{Name: quota.FreeUserCookie, Value: "usage-device"})
	usageResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, usageResp.StatusCode)

	data := decodeBody(t, usageResp)
	assert.Equal(t, float64(1), data["imageCount"])
	assert.Equal(t, float64(quota.FreeDailyLimit), data["dailyLimit"])
	assert.Equal(t, true, data["canProcess"])
	assert.Equal(t, "free", data["userType"])
}

func TestExtractTextPremiumCountsAndLogs(t *testing.T) {
	engine := stubOCR{result: &ocr.Result{Text: "invoice text", Confidence: 90, WordCount: 2, Engine: "ocrspace"}}
	_, repos := newExtractTestApp(t, engine)

	user := premiumUserFixture(t, repos, "prem_extract", "prem-extract@example.com")
	app := newPremiumTestApp(t, user.ID, user.Username)

	resp := extractRequest(t, app, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Usage reflects the increment with the monthly shape.
	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	usageResp, err := app.Test(req, -1)
	require.NoError(t, err)
	data := decodeBody(t, usageResp)
	assert.Equal(t, float64(1), data["imageCount"])
	assert.Equal(t, float64(quota.PremiumMonthlyLimit), data["monthlyLimit"])
	assert.Equal(t, "premium", data["userType"])

	// The extraction shows up in the history.
	histReq := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	histResp, err := app.Test(histReq, -1)
	require.NoError(t, err)
	hist := decodeBody(t, histResp)
	assert.Equal(t, float64(1), hist["total"])
}

func TestExtractTextPremiumMonthlyLimit(t *testing.T) {
	engine := stubOCR{result: &ocr.Result{Text: "x", Confidence: 75, WordCount: 1, Engine: "ocrspace"}}
	_, repos := newExtractTestApp(t, engine)

	user := premiumUserFixture(t, repos, "prem_limit", "prem-limit@example.com")
	user.MonthlyUsage = quota.PremiumMonthlyLimit
	require.NoError(t, repos.User.Update(user))

	app := newPremiumTestApp(t, user.ID, user.Username)

	resp := extractRequest(t, app, "")
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	data := decodeBody(t, resp)
	assert.Equal(t, "Monthly limit of 1500 extractions exceeded", data["error"])
	assert.Equal(t, true, data["limitExceeded"])
	assert.Equal(t, "premium", data["userType"])
}
