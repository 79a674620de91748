package journal

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/profile"
	"github.com/congo-pay/datatopup/internal/session"
)

// Handler exposes the caller's transaction history.
type Handler struct {
	journal Journal
}

// NewHandler constructs a journal handler.
func NewHandler(journal Journal) *Handler {
	return &Handler{journal: journal}
}

type entryResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// List returns the signed-in user's latest journal entries.
func (h *Handler) List(c *fiber.Ctx) error {
	s, ok := session.FromContext(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	entries, err := h.journal.List(c.UserContext(), s.User.ID, DefaultListLimit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "could not load transactions")
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:           e.ID,
			Kind:         e.Kind,
			Amount:       profile.Major(e.Amount),
			BalanceAfter: profile.Major(e.BalanceAfter),
			Reference:    e.Reference,
			CreatedAt:    e.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}
