package quota

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIPPrefersForwardedFor(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ClientIP(c))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.50", string(body))
}

func TestResolveIdentityIssuesCookie(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		id := ResolveIdentity(c)
		return c.SendString(id.CookieID)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	var found bool
	for _, ck := range cookies {
		if ck.Name == FreeUserCookie {
			found = true
			assert.NotEmpty(t, ck.Value)
			assert.True(t, ck.HttpOnly)
		}
	}
	assert.True(t, found, "visitor cookie should be set on first contact")
}

func TestResolveIdentityKeepsExistingCookie(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		id := ResolveIdentity(c)
		return c.SendString(id.CookieID)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: FreeUserCookie, Value: "existing-cookie-id"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "existing-cookie-id", string(body))

	// The same value is re-set so the expiry slides on every visit.
	var reissued *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == FreeUserCookie {
			reissued = ck
		}
	}
	require.NotNil(t, reissued)
	assert.Equal(t, "existing-cookie-id", reissued.Value)
}
