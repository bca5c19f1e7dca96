package quota

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pictotext/pictotext/internal/pkg/env"
)

// FreeUserCookie identifies anonymous visitors across requests.
const FreeUserCookie = "pictotext_free_user"

// Identity is the anonymous key a free-tier counter is tracked under.
type Identity struct {
	IPAddress string
	CookieID  string
}

// ClientIP extracts the originating client address. Behind a proxy the first
// entry of X-Forwarded-For is the client.
func ClientIP(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}

// ResolveIdentity reads the visitor cookie, minting a fresh one when the
// request carries none, and pairs it with the client IP. The cookie is
// reissued on every call so its expiry slides forward with activity.
func ResolveIdentity(c *fiber.Ctx) Identity {
	cookieID := c.Cookies(FreeUserCookie)
	if cookieID == "" {
		cookieID = uuid.New().String()
	}
	IssueCookie(c, cookieID)
	return Identity{IPAddress: ClientIP(c), CookieID: cookieID}
}

// IssueCookie sets the long-lived visitor cookie on the response.
func IssueCookie(c *fiber.Ctx, cookieID string) {
	c.Cookie(&fiber.Cookie{
		Name:     FreeUserCookie,
		Value:    cookieID,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HTTPOnly: true,
		Secure:   !env.IsDev(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
