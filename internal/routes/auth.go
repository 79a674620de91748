package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/auth"
	"github.com/congo-pay/datatopup/internal/middleware"
)

// RegisterAuthRoutes wires the balance page, login form and logout.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Get("/", middleware.RequirePageSession(), h.Home)
	r.Get("/login", h.LoginPage)
	if rateLimiter != nil {
		r.Post("/login", rateLimiter, h.Login)
	} else {
		r.Post("/login", h.Login)
	}
	r.Get("/logout", h.Logout)
}
