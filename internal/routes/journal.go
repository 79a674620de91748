package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/journal"
	"github.com/congo-pay/datatopup/internal/middleware"
)

// RegisterJournalRoutes wires the transaction history endpoint.
func RegisterJournalRoutes(r fiber.Router, h *journal.Handler) {
	r.Get("/api/transactions", middleware.RequireSession(), h.List)
}
