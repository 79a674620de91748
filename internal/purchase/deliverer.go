package purchase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrDeliveryNotConfigured is returned when a live delivery key is configured
// but no live connector exists yet.
var ErrDeliveryNotConfigured = errors.New("live delivery api not configured")

// Bundle is a data bundle order.
type Bundle struct {
	Network string
	Phone   string
	Price   int64
}

// Delivery is the connector's acknowledgement of a bundle order.
type Delivery struct {
	Reference string
	Simulated bool
}

// Deliverer hands a bundle order to the data provider.
type Deliverer interface {
	Deliver(ctx context.Context, b Bundle) (Delivery, error)
}

// SimulatedDeliverer pretends to deliver bundles after a fixed delay.
type SimulatedDeliverer struct {
	delay  time.Duration
	logger *slog.Logger
}

// NewSimulatedDeliverer constructs a simulator waiting delay per order.
func NewSimulatedDeliverer(delay time.Duration, logger *slog.Logger) *SimulatedDeliverer {
	return &SimulatedDeliverer{delay: delay, logger: logger}
}

// Deliver logs the order and waits for the configured delay or ctx to end.
func (d *SimulatedDeliverer) Deliver(ctx context.Context, b Bundle) (Delivery, error) {
	d.logger.Info("simulated delivery", slog.String("network", b.Network), slog.String("phone", b.Phone))

	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Delivery{Reference: uuid.NewString(), Simulated: true}, nil
}

// LiveDeliverer stands in for the real data provider API.
type LiveDeliverer struct{}

// Deliver always fails with ErrDeliveryNotConfigured.
func (LiveDeliverer) Deliver(context.Context, Bundle) (Delivery, error) {
	return Delivery{}, ErrDeliveryNotConfigured
}

// NewDeliverer picks the simulator or the live connector.
func NewDeliverer(simulation bool, delay time.Duration, logger *slog.Logger) Deliverer {
	if simulation {
		return NewSimulatedDeliverer(delay, logger)
	}
	return LiveDeliverer{}
}
