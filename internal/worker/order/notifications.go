package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/config"
	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/messaging"
	ordersvc "github.com/campuscode/canteen/internal/service/order"
	"github.com/campuscode/canteen/internal/store"
	"github.com/campuscode/canteen/internal/worker"
)

var workerTracer = otel.Tracer("github.com/campuscode/canteen/worker/order")

// NotificationsCollection stores customer-facing notifications produced from
// lifecycle events. Writes here race independently of order writes; no
// cross-collection ordering is guaranteed.
const NotificationsCollection = "notifications"

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewLifecycleHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewLifecycleHandler consumes order lifecycle events and records a
// notification for the customer.
func NewLifecycleHandler(st *store.Store, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.notify", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		_, err := st.Create(ctx, NotificationsCollection, store.Document{
			"userId":  event.UserID,
			"orderId": event.OrderID,
			"message": messageFor(event),
			"status":  "unread",
		})
		if err != nil {
			logger.Error("failed to store notification",
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "store error")
			return err
		}

		logger.Info("lifecycle event processed",
			zap.String("order_id", event.OrderID),
			zap.String("status", string(event.Status)),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

func messageFor(event ordersvc.OrderEvent) string {
	switch event.Status {
	case entity.StatusPendingApproval:
		return fmt.Sprintf("Order placed, waiting for the shop to confirm. Token %d.", event.TokenNumber)
	case entity.StatusApproved:
		return "Your order was approved. Complete the payment to start preparation."
	case entity.StatusRejected:
		return "Your order was rejected by the shop."
	case entity.StatusPaymentCompleted:
		return "Payment received. The kitchen will start on your order shortly."
	case entity.StatusPaymentFailed:
		return "Payment failed. You can try again from the order page."
	case entity.StatusReady:
		return fmt.Sprintf("Your order is ready for pickup. Token %d.", event.TokenNumber)
	case entity.StatusFulfilled:
		return "Order picked up. Enjoy!"
	default:
		return fmt.Sprintf("Order update: %s.", event.Status)
	}
}
