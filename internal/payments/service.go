package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/congo-pay/datatopup/internal/journal"
	"github.com/congo-pay/datatopup/internal/metrics"
	"github.com/congo-pay/datatopup/internal/notification"
	"github.com/congo-pay/datatopup/internal/paystack"
	"github.com/congo-pay/datatopup/internal/profile"
)

var (
	// ErrPaymentNotSuccessful means the gateway did not confirm a settled charge.
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	// ErrAmountMismatch means the caller claimed a different amount than the gateway settled.
	ErrAmountMismatch = errors.New("amount does not match verified payment")
	// ErrMissingReference is returned when no gateway reference was supplied.
	ErrMissingReference = errors.New("reference is required")
)

// Verifier confirms a gateway transaction by reference.
type Verifier interface {
	Verify(ctx context.Context, reference string) (paystack.Verification, error)
}

// Service credits balances for payments confirmed by the gateway.
type Service struct {
	verifier Verifier
	profiles *profile.Service
	journal  journal.Journal
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs a payment service.
func NewService(verifier Verifier, profiles *profile.Service, j journal.Journal, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{verifier: verifier, profiles: profiles, journal: j, notifier: notifier, logger: logger}
}

// VerifyInput identifies the payment to verify. ClaimedAmount is the amount
// the client says it paid, in minor units; nil when not supplied.
type VerifyInput struct {
	UserID        string
	Reference     string
	ClaimedAmount *int64
}

// VerifyResult describes a credited top-up.
type VerifyResult struct {
	Reference  string
	Credited   int64
	NewBalance int64
}

// VerifyPayment checks reference with the gateway and credits the verified
// amount. References are not de-duplicated, so a replayed request credits again.
func (s *Service) VerifyPayment(ctx context.Context, in VerifyInput) (VerifyResult, error) {
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return VerifyResult{}, ErrMissingReference
	}

	v, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		metrics.RecordTopUp("gateway_error")
		return VerifyResult{}, err
	}
	if !v.Successful() || v.Amount <= 0 {
		metrics.RecordTopUp("failed")
		s.logger.Info("payment not successful",
			slog.String("reference", reference),
			slog.Bool("status", v.Status),
			slog.String("transaction_status", v.TransactionStatus),
			slog.String("message", v.Message),
		)
		return VerifyResult{}, ErrPaymentNotSuccessful
	}
	if in.ClaimedAmount != nil && *in.ClaimedAmount != v.Amount {
		metrics.RecordTopUp("amount_mismatch")
		s.logger.Warn("claimed amount differs from verified amount",
			slog.String("reference", reference),
			slog.Int64("claimed", *in.ClaimedAmount),
			slog.Int64("verified", v.Amount),
		)
		return VerifyResult{}, ErrAmountMismatch
	}

	balance, err := s.profiles.Credit(ctx, in.UserID, v.Amount)
	if err != nil {
		metrics.RecordTopUp("error")
		return VerifyResult{}, fmt.Errorf("credit %s: %w", reference, err)
	}
	metrics.RecordTopUp("success")

	if _, err := s.journal.Record(ctx, journal.Entry{
		UserID:       in.UserID,
		Kind:         journal.KindTopUp,
		Amount:       v.Amount,
		BalanceAfter: balance,
		Reference:    reference,
	}); err != nil {
		s.logger.Warn("journal record failed", slog.String("user_id", in.UserID), slog.Any("error", err))
	}
	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindTopUp,
		Destination: in.UserID,
		Body:        fmt.Sprintf("balance topped up by %s", profile.FormatMajor(v.Amount)),
	}); err != nil {
		s.logger.Warn("notification failed", slog.String("user_id", in.UserID), slog.Any("error", err))
	}

	return VerifyResult{Reference: reference, Credited: v.Amount, NewBalance: balance}, nil
}
