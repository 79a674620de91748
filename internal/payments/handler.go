package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/paystack"
	"github.com/congo-pay/datatopup/internal/profile"
	"github.com/congo-pay/datatopup/internal/session"
)

// Handler exposes the top-up endpoints.
type Handler struct {
	service   *Service
	publicKey string
}

// NewHandler constructs a payment handler. publicKey is handed to the browser
// checkout widget.
func NewHandler(service *Service, publicKey string) *Handler {
	return &Handler{service: service, publicKey: publicKey}
}

type verifyRequest struct {
	Reference string          `json:"reference"`
	Amount    *profile.Amount `json:"amount"`
}

// VerifyPayment confirms a gateway reference and credits the caller.
func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	s, ok := session.FromContext(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	in := VerifyInput{UserID: s.User.ID, Reference: req.Reference}
	if req.Amount != nil {
		claimed := req.Amount.Minor()
		in.ClaimedAmount = &claimed
	}

	res, err := h.service.VerifyPayment(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingReference):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPaymentNotSuccessful), errors.Is(err, ErrAmountMismatch):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"status": "failed"})
		case errors.Is(err, paystack.ErrGatewayUnavailable):
			return fiber.NewError(http.StatusBadGateway, "payment gateway unavailable")
		case errors.Is(err, profile.ErrRecordNotFound):
			return fiber.NewError(http.StatusNotFound, "profile not found")
		case errors.Is(err, profile.ErrNotAuthenticated):
			return fiber.NewError(http.StatusUnauthorized, "profile store rejected the session")
		case errors.Is(err, profile.ErrConflict):
			return fiber.NewError(http.StatusConflict, "balance changed during top up, please retry")
		case errors.Is(err, profile.ErrUpstreamUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "balance service unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, "top up failed")
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":      "success",
		"new_balance": profile.Major(res.NewBalance),
	})
}

// PaystackKey returns the public key for the checkout widget.
func (h *Handler) PaystackKey(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"key": h.publicKey})
}
