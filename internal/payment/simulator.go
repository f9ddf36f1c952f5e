package payment

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/config"
)

// Request describes a single payment attempt.
type Request struct {
	OrderID       string
	Amount        float64
	Currency      string
	CustomerEmail string
	CustomerName  string
}

// Result is the outcome of a payment attempt. A decline is a normal result,
// not an error.
type Result struct {
	Success       bool
	TransactionID string
	Declined      string
}

// Processor settles payment requests.
type Processor interface {
	Process(ctx context.Context, req Request) (Result, error)
}

// Module provides the payment processor to the Fx graph.
var Module = fx.Provide(NewSimulator)

// Simulator models an external payment gateway: an artificial delay followed
// by an independent random outcome. It keeps no memory of prior attempts;
// retries are fresh trials.
type Simulator struct {
	delay       time.Duration
	successRate float64
	logger      *zap.Logger
	roll        func() float64
}

// NewSimulator builds a Simulator from configuration.
func NewSimulator(cfg config.Config, logger *zap.Logger) Processor {
	return &Simulator{
		delay:       cfg.Payment.Delay,
		successRate: cfg.Payment.SuccessRate,
		logger:      logger,
		roll:        rand.Float64,
	}
}

// NewSimulatorWithRoll builds a Simulator with an injected outcome source so
// tests can force success or decline.
func NewSimulatorWithRoll(delay time.Duration, successRate float64, logger *zap.Logger, roll func() float64) *Simulator {
	return &Simulator{delay: delay, successRate: successRate, logger: logger, roll: roll}
}

// Process waits out the simulated gateway latency, then draws the outcome.
// The wait is cancellable through ctx; a cancelled attempt settles nothing.
func (s *Simulator) Process(ctx context.Context, req Request) (Result, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if s.roll() < s.successRate {
		result := Result{
			Success:       true,
			TransactionID: "txn_" + uuid.NewString(),
		}
		if s.logger != nil {
			s.logger.Info("payment settled",
				zap.String("order_id", req.OrderID),
				zap.Float64("amount", req.Amount),
				zap.String("currency", req.Currency),
				zap.String("transaction_id", result.TransactionID),
			)
		}
		return result, nil
	}

	if s.logger != nil {
		s.logger.Info("payment declined",
			zap.String("order_id", req.OrderID),
			zap.Float64("amount", req.Amount),
		)
	}
	return Result{Declined: "payment declined by issuer"}, nil
}
