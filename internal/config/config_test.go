package config

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if cfg.Store.Driver != "file" {
		t.Errorf("store driver = %q", cfg.Store.Driver)
	}
	if cfg.Payment.SuccessRate != 0.9 {
		t.Errorf("payment success rate = %v", cfg.Payment.SuccessRate)
	}
	if cfg.Payment.Delay != 2*time.Second {
		t.Errorf("payment delay = %v", cfg.Payment.Delay)
	}
	if cfg.Sync.ShopInterval != 10*time.Second {
		t.Errorf("shop interval = %v", cfg.Sync.ShopInterval)
	}
	if cfg.Sync.CustomerInitialDelay != 2*time.Second {
		t.Errorf("customer initial delay = %v", cfg.Sync.CustomerInitialDelay)
	}
	if cfg.Sync.CustomerInterval != 5*time.Second {
		t.Errorf("customer interval = %v", cfg.Sync.CustomerInterval)
	}
	if cfg.Sync.CustomerMaxAttempts != 24 {
		t.Errorf("customer max attempts = %d", cfg.Sync.CustomerMaxAttempts)
	}
	if cfg.Messaging.Kafka.Topic != "orders.lifecycle" {
		t.Errorf("kafka topic = %q", cfg.Messaging.Kafka.Topic)
	}
}

func TestNewRejectsBadSuccessRate(t *testing.T) {
	t.Setenv("PAYMENT_SUCCESS_RATE", "1.5")

	if _, err := New(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewRejectsUnknownStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")

	if _, err := New(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewDisabledMessagingFallsBackToNoop(t *testing.T) {
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cfg.Messaging.Driver != "noop" {
		t.Errorf("messaging driver = %q", cfg.Messaging.Driver)
	}
}
