package watch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/config"
	"github.com/campuscode/canteen/internal/entity"
	repo "github.com/campuscode/canteen/internal/repository/order"
)

// Module provides the watcher to the Fx graph.
var Module = fx.Provide(NewWatcher)

// Subscription is the cancelable handle for a polling loop. Stop prevents
// the next tick from being scheduled; an in-flight poll is not interrupted.
type Subscription struct {
	stop chan struct{}
	once sync.Once
}

func newSubscription() *Subscription {
	return &Subscription{stop: make(chan struct{})}
}

// Stop cancels the loop.
func (s *Subscription) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// OrderUpdate is delivered by WatchOrder: either the order after the
// shopkeeper's decision, or a timeout distinct from rejection.
type OrderUpdate struct {
	Order    *entity.Order
	TimedOut bool
}

// Watcher runs the polling loops that stand in for push notifications.
// Delivery is at-least-once and eventually consistent: each tick re-reads
// the repository and reports what it finds.
type Watcher struct {
	repo   *repo.Repository
	cfg    config.Sync
	logger *zap.Logger
}

// NewWatcher builds a Watcher from configuration.
func NewWatcher(r *repo.Repository, cfg config.Config, logger *zap.Logger) *Watcher {
	return &Watcher{repo: r, cfg: cfg.Sync, logger: logger}
}

// WatchPending polls the shop's approval queue on a fixed interval and feeds
// the full current list to fn each tick. No diffing happens here; the
// consumer de-duplicates against what it already rendered.
func (w *Watcher) WatchPending(shopID string, fn func([]entity.Order)) *Subscription {
	sub := newSubscription()

	go func() {
		ticker := time.NewTicker(w.cfg.ShopInterval)
		defer ticker.Stop()

		for {
			select {
			case <-sub.stop:
				return
			case <-ticker.C:
				orders, err := w.repo.FindPendingForShop(context.Background(), shopID)
				if err != nil {
					if w.logger != nil {
						w.logger.Warn("pending poll failed", zap.String("shop_id", shopID), zap.Error(err))
					}
					continue
				}
				fn(orders)
			}
		}
	}()

	return sub
}

// WatchOrder polls a single order until the shopkeeper's decision lands:
// after an initial delay, it re-fetches the order on a fixed interval for a
// bounded number of attempts. Once the order leaves pending_approval the
// loop fires fn exactly once with the order and stops. If the bound is
// exhausted while the order is still pending, fn receives TimedOut instead.
func (w *Watcher) WatchOrder(orderID string, fn func(OrderUpdate)) *Subscription {
	sub := newSubscription()

	go func() {
		delay := time.NewTimer(w.cfg.CustomerInitialDelay)
		defer delay.Stop()
		select {
		case <-sub.stop:
			return
		case <-delay.C:
		}

		ticker := time.NewTicker(w.cfg.CustomerInterval)
		defer ticker.Stop()

		for attempt := 0; attempt < w.cfg.CustomerMaxAttempts; attempt++ {
			order, err := w.repo.FindByID(context.Background(), orderID)
			if err != nil {
				if w.logger != nil {
					w.logger.Warn("order poll failed", zap.String("order_id", orderID), zap.Error(err))
				}
			} else if order.Status != entity.StatusPendingApproval {
				fn(OrderUpdate{Order: order})
				return
			}

			select {
			case <-sub.stop:
				return
			case <-ticker.C:
			}
		}

		fn(OrderUpdate{TimedOut: true})
	}()

	return sub
}
