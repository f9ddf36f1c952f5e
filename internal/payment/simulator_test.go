package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestProcessForcedSuccess(t *testing.T) {
	sim := NewSimulatorWithRoll(0, 0.9, zap.NewNop(), func() float64 { return 0.1 })

	result, err := sim.Process(context.Background(), Request{OrderID: "o1", Amount: 13.00, Currency: "INR"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if !strings.HasPrefix(result.TransactionID, "txn_") {
		t.Fatalf("transaction id %q missing txn_ prefix", result.TransactionID)
	}
	if result.Declined != "" {
		t.Fatalf("success carried decline reason %q", result.Declined)
	}
}

func TestProcessForcedDecline(t *testing.T) {
	sim := NewSimulatorWithRoll(0, 0.9, zap.NewNop(), func() float64 { return 0.95 })

	result, err := sim.Process(context.Background(), Request{OrderID: "o1", Amount: 13.00})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Success {
		t.Fatal("expected decline")
	}
	if result.TransactionID != "" {
		t.Fatalf("decline carried transaction id %q", result.TransactionID)
	}
	if result.Declined == "" {
		t.Fatal("decline reason missing")
	}
}

func TestProcessRetryIsIndependent(t *testing.T) {
	rolls := []float64{0.95, 0.1}
	i := 0
	sim := NewSimulatorWithRoll(0, 0.9, zap.NewNop(), func() float64 {
		roll := rolls[i]
		i++
		return roll
	})

	first, err := sim.Process(context.Background(), Request{OrderID: "o1"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if first.Success {
		t.Fatal("first attempt should decline")
	}

	second, err := sim.Process(context.Background(), Request{OrderID: "o1"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !second.Success {
		t.Fatal("second attempt should succeed regardless of the first")
	}
}

func TestProcessWaitsOutDelay(t *testing.T) {
	sim := NewSimulatorWithRoll(30*time.Millisecond, 1, zap.NewNop(), func() float64 { return 0 })

	start := time.Now()
	if _, err := sim.Process(context.Background(), Request{OrderID: "o1"}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("returned after %v, before the gateway delay elapsed", elapsed)
	}
}

func TestProcessCancelledDuringDelay(t *testing.T) {
	sim := NewSimulatorWithRoll(time.Second, 1, zap.NewNop(), func() float64 { return 0 })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sim.Process(ctx, Request{OrderID: "o1"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
