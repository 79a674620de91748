package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/middleware"
	"github.com/congo-pay/datatopup/internal/purchase"
)

// RegisterPurchaseRoutes wires the data bundle endpoint.
func RegisterPurchaseRoutes(r fiber.Router, h *purchase.Handler) {
	r.Post("/buy-data", middleware.RequireSession(), h.BuyData)
}
