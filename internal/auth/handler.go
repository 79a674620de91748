package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/identity"
	"github.com/congo-pay/datatopup/internal/profile"
	"github.com/congo-pay/datatopup/internal/session"
	"github.com/congo-pay/datatopup/internal/web"
)

const tooManyAttempts = "Too many login attempts, try again in a minute."

// Handler serves the login form, the balance page and logout.
type Handler struct {
	svc      *Service
	profiles *profile.Service
	sessions *session.Manager
	logger   *slog.Logger
}

func NewHandler(svc *Service, profiles *profile.Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, profiles: profiles, sessions: sessions, logger: logger}
}

// Home renders the balance page for the signed-in user.
func (h *Handler) Home(c *fiber.Ctx) error {
	s, ok := session.FromContext(c)
	if !ok {
		return c.Redirect("/login", http.StatusFound)
	}

	p, err := h.profiles.Get(c.UserContext(), s.User.ID)
	switch {
	case err == nil:
	case errors.Is(err, profile.ErrRecordNotFound):
		p = profile.Profile{ID: s.User.ID}
	case errors.Is(err, profile.ErrUpstreamUnavailable):
		h.logger.Error("balance lookup failed", slog.String("user_id", s.User.ID), slog.Any("error", err))
		return web.Render(c, http.StatusServiceUnavailable, "unavailable.html", web.UnavailablePage{
			Message: "We could not load your balance right now. Please try again shortly.",
		})
	default:
		h.logger.Warn("ending session after balance lookup failure", slog.String("user_id", s.User.ID), slog.Any("error", err))
		if derr := h.sessions.Destroy(c); derr != nil {
			h.logger.Warn("session cleanup failed", slog.Any("error", derr))
		}
		return c.Redirect("/login", http.StatusFound)
	}

	return web.Render(c, http.StatusOK, "index.html", web.HomePage{
		Email:   s.User.Email,
		Balance: profile.FormatMajor(p.Balance),
	})
}

// LoginPage renders the empty login form.
func (h *Handler) LoginPage(c *fiber.Ctx) error {
	return web.Render(c, http.StatusOK, "login.html", web.LoginPage{})
}

// Login signs the user in or up, then starts a session.
func (h *Handler) Login(c *fiber.Ctx) error {
	creds := identity.Credentials{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
	}
	action := c.FormValue("action")

	user, err := h.svc.Login(c.UserContext(), action, creds)
	if err != nil {
		return web.Render(c, http.StatusOK, "login.html", web.LoginPage{Email: creds.Email, Error: err.Error()})
	}

	if _, err := h.sessions.Start(c, user); err != nil {
		h.logger.Error("session start failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return web.Render(c, http.StatusServiceUnavailable, "login.html", web.LoginPage{
			Email: creds.Email,
			Error: "Could not start your session, please try again.",
		})
	}

	h.logger.Info("user signed in", slog.String("user_id", user.ID), slog.String("action", action))
	return c.Redirect("/", http.StatusFound)
}

// TooManyAttempts renders the login form for a rate-limited caller.
func (h *Handler) TooManyAttempts(c *fiber.Ctx) error {
	return web.Render(c, http.StatusTooManyRequests, "login.html", web.LoginPage{
		Email: strings.TrimSpace(c.FormValue("email")),
		Error: tooManyAttempts,
	})
}

// Logout always clears the session, even if the store delete fails.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Destroy(c); err != nil {
		h.logger.Warn("session delete failed", slog.Any("error", err))
	}
	return c.Redirect("/login", http.StatusFound)
}
