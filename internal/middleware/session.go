package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/session"
)

// Session resolves the session cookie and attaches the session to the request.
// Requests without a usable session continue anonymously; a stale or forged
// cookie is cleared.
func Session(mgr *session.Manager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := mgr.Load(c)
		switch {
		case err == nil:
			session.Attach(c, s)
		case errors.Is(err, session.ErrInvalidToken):
			mgr.ClearCookie(c)
		case errors.Is(err, session.ErrNotFound):
		default:
			logger.Error("session lookup failed", slog.Any("error", err))
			return fiber.NewError(http.StatusServiceUnavailable, "session store unavailable")
		}
		return c.Next()
	}
}

// RequireSession rejects anonymous API calls with a JSON 401.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := session.FromContext(c); !ok {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}

// RequirePageSession redirects anonymous page requests to the login form.
func RequirePageSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := session.FromContext(c); !ok {
			return c.Redirect("/login", http.StatusFound)
		}
		return c.Next()
	}
}
