package notification

import (
	"context"
	"log/slog"
)

const (
	// KindBundlePurchase indicates a data bundle was delivered.
	KindBundlePurchase = "bundle_purchase"
	// KindTopUp indicates a verified top-up was credited.
	KindTopUp = "topup"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	)
	return nil
}

// Recorder keeps sent messages in memory. Tests use it to assert on side effects.
type Recorder struct {
	Messages []Message
}

// Send appends message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.Messages = append(r.Messages, message)
	return nil
}
