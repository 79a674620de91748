package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/middleware"
	"github.com/congo-pay/datatopup/internal/payments"
)

// RegisterPaymentRoutes wires the Paystack top-up endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler) {
	r.Get("/get-paystack-key", h.PaystackKey)
	r.Post("/verify-payment", middleware.RequireSession(), h.VerifyPayment)
}
