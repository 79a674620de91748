package purchase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/profile"
	"github.com/congo-pay/datatopup/internal/session"
)

const (
	insufficientBalanceMessage = "Insufficient Balance! Please Top Up."
	notConfiguredMessage       = "Real API not configured yet"
)

// Handler exposes the bundle purchase endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a purchase handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// BuyData debits the caller and delivers a data bundle.
func (h *Handler) BuyData(c *fiber.Ctx) error {
	s, ok := session.FromContext(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req BuyDataRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.BuyData(c.UserContext(), s.User.ID, Bundle{
		Network: req.Network,
		Phone:   req.Phone,
		Price:   req.Price.Minor(),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidBundle):
			return fiber.NewError(http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrInvalidBundle.Error()+": "))
		case errors.Is(err, profile.ErrInsufficientFunds):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": insufficientBalanceMessage})
		case errors.Is(err, ErrDeliveryNotConfigured):
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": notConfiguredMessage})
		case errors.Is(err, profile.ErrRecordNotFound):
			return fiber.NewError(http.StatusNotFound, "profile not found")
		case errors.Is(err, profile.ErrNotAuthenticated):
			return fiber.NewError(http.StatusUnauthorized, "profile store rejected the session")
		case errors.Is(err, profile.ErrConflict):
			return fiber.NewError(http.StatusConflict, "balance changed during purchase, please retry")
		case errors.Is(err, profile.ErrUpstreamUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "balance service unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, "purchase failed")
		}
	}

	return c.Status(http.StatusOK).JSON(BuyDataResponse{
		Message:    fmt.Sprintf("SUCCESS (SIMULATION): %s Bundle sent to %s!", strings.TrimSpace(req.Network), strings.TrimSpace(req.Phone)),
		NewBalance: profile.Major(result.NewBalance),
	})
}
