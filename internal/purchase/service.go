package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/congo-pay/datatopup/internal/journal"
	"github.com/congo-pay/datatopup/internal/metrics"
	"github.com/congo-pay/datatopup/internal/notification"
	"github.com/congo-pay/datatopup/internal/profile"
)

// ErrInvalidBundle wraps request validation failures.
var ErrInvalidBundle = errors.New("invalid bundle request")

// Service sells data bundles against the profile balance.
type Service struct {
	profiles  *profile.Service
	deliverer Deliverer
	journal   journal.Journal
	notifier  notification.Notifier
	logger    *slog.Logger
}

// NewService wires the purchase workflow.
func NewService(profiles *profile.Service, deliverer Deliverer, j journal.Journal, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{profiles: profiles, deliverer: deliverer, journal: j, notifier: notifier, logger: logger}
}

// Result is a completed purchase.
type Result struct {
	Delivery   Delivery
	NewBalance int64
}

// BuyData checks the balance, hands the order to the deliverer and debits the
// price. The debit is conditional, so a concurrent purchase that drained the
// balance during delivery still yields profile.ErrInsufficientFunds.
func (s *Service) BuyData(ctx context.Context, userID string, b Bundle) (Result, error) {
	b.Network = strings.TrimSpace(b.Network)
	b.Phone = strings.TrimSpace(b.Phone)
	if err := validate(b); err != nil {
		return Result{}, err
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		metrics.RecordPurchase(b.Network, "error")
		return Result{}, err
	}
	if p.Balance < b.Price {
		metrics.RecordPurchase(b.Network, "insufficient_funds")
		return Result{}, profile.ErrInsufficientFunds
	}

	delivery, err := s.deliverer.Deliver(ctx, b)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrDeliveryNotConfigured) {
			outcome = "not_configured"
		}
		metrics.RecordPurchase(b.Network, outcome)
		return Result{}, err
	}

	balance, err := s.profiles.Debit(ctx, userID, b.Price)
	if err != nil {
		outcome := "error"
		if errors.Is(err, profile.ErrInsufficientFunds) {
			outcome = "insufficient_funds"
		}
		metrics.RecordPurchase(b.Network, outcome)
		return Result{}, err
	}
	metrics.RecordPurchase(b.Network, "success")

	if _, err := s.journal.Record(ctx, journal.Entry{
		UserID:       userID,
		Kind:         journal.KindPurchase,
		Amount:       b.Price,
		BalanceAfter: balance,
		Reference:    delivery.Reference,
	}); err != nil {
		s.logger.Warn("journal record failed", slog.String("user_id", userID), slog.Any("error", err))
	}
	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindBundlePurchase,
		Destination: b.Phone,
		Body:        fmt.Sprintf("%s bundle worth %s delivered", b.Network, profile.FormatMajor(b.Price)),
	}); err != nil {
		s.logger.Warn("notification failed", slog.String("user_id", userID), slog.Any("error", err))
	}

	return Result{Delivery: delivery, NewBalance: balance}, nil
}

func validate(b Bundle) error {
	switch {
	case b.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidBundle)
	case b.Network == "":
		return fmt.Errorf("%w: network is required", ErrInvalidBundle)
	case b.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrInvalidBundle)
	}
	return nil
}
