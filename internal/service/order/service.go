package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/cache"
	"github.com/campuscode/canteen/internal/config"
	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/messaging"
	"github.com/campuscode/canteen/internal/payment"
	"github.com/campuscode/canteen/internal/repository/catalog"
	repo "github.com/campuscode/canteen/internal/repository/order"
	"github.com/campuscode/canteen/internal/store"
	"github.com/campuscode/canteen/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/campuscode/canteen/service/order")

// DraftItem is a cart line as submitted by the customer. A zero UnitPrice is
// resolved against the live menu at submission; once captured it is never
// recomputed.
type DraftItem struct {
	MenuItemID string
	Quantity   int
	UnitPrice  float64
	Notes      string
}

// Draft is a customer's order submission.
type Draft struct {
	UserID        string
	ShopID        string
	Items         []DraftItem
	PaymentMethod string
	Notes         string
}

// Service is the order lifecycle controller: it validates every state
// transition, computes derived fields, and owns all order mutations.
type Service struct {
	repo      *repo.Repository
	catalog   *catalog.Repository
	processor payment.Processor
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	currency  string
	tokenFn   func() int
	nowFn     func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Catalog    *catalog.Repository
	Processor  payment.Processor
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		catalog:   p.Catalog,
		processor: p.Processor,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		currency: p.Config.Payment.Currency,
		tokenFn:  func() int { return rand.IntN(entity.TokenMax) + entity.TokenMin },
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates a draft, captures item prices, draws the pickup token and
// persists the order in pending_approval.
func (s *Service) Submit(ctx context.Context, draft Draft) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.Submit", trace.WithAttributes(
		attribute.String("order.shop_id", draft.ShopID),
		attribute.Int("order.items", len(draft.Items)),
	))
	defer span.End()

	if draft.UserID == "" || draft.ShopID == "" {
		return nil, errorbank.BadRequest("userId and shopId are required")
	}
	if len(draft.Items) == 0 {
		return nil, errorbank.Unprocessable("order must contain at least one item")
	}

	items := make([]entity.OrderItem, 0, len(draft.Items))
	for _, line := range draft.Items {
		if line.MenuItemID == "" {
			return nil, errorbank.Unprocessable("menuItemId is required on every item")
		}
		if line.Quantity < 1 {
			return nil, errorbank.Unprocessable("item quantity must be at least 1",
				errorbank.WithDetail("menuItemId", line.MenuItemID))
		}
		unitPrice := line.UnitPrice
		if unitPrice <= 0 {
			menuItem, err := s.catalog.FindMenuItem(ctx, line.MenuItemID)
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, errorbank.Unprocessable("unknown menu item",
					errorbank.WithDetail("menuItemId", line.MenuItemID))
			}
			if err != nil {
				return nil, s.fail(span, err, "failed to resolve menu item")
			}
			if !menuItem.Available {
				return nil, errorbank.Unprocessable("menu item is unavailable",
					errorbank.WithDetail("menuItemId", line.MenuItemID))
			}
			unitPrice = menuItem.Price
		}
		items = append(items, entity.OrderItem{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  unitPrice,
			Notes:      line.Notes,
		})
	}

	order := &entity.Order{
		UserID:        draft.UserID,
		ShopID:        draft.ShopID,
		Items:         items,
		TotalAmount:   entity.Total(items),
		Status:        entity.StatusPendingApproval,
		TokenNumber:   s.tokenFn(),
		PaymentMethod: draft.PaymentMethod,
		Notes:         draft.Notes,
	}

	stored, err := s.repo.Submit(ctx, order)
	if err != nil {
		return nil, s.fail(span, err, "failed to submit order")
	}

	s.afterTransition(ctx, stored)
	return stored, nil
}

// Approve moves a pending order to approved. The preparation time must come
// from the enumerated set; the pickup estimate is approval time plus the
// selected minutes, ignoring queueing delay.
func (s *Service) Approve(ctx context.Context, orderID string, prepMinutes int) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.Approve", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("order.prep_minutes", prepMinutes),
	))
	defer span.End()

	if !entity.ValidPreparationMinutes(prepMinutes) {
		return nil, errorbank.Unprocessable("preparation time is not an allowed value",
			errorbank.WithDetail("preparationTime", prepMinutes))
	}

	current, err := s.mustFind(ctx, span, orderID)
	if err != nil {
		return nil, err
	}

	eta := s.nowFn().Add(time.Duration(prepMinutes) * time.Minute)
	return s.transition(ctx, span, current, entity.StatusApproved, store.Document{
		"estimatedPickupTime": eta.Format(time.RFC3339Nano),
	})
}

// Reject moves a pending order to rejected. The reason is either a value
// from the fixed list or, for "other", non-empty trimmed free text of at
// most 100 characters; otherwise validation fails and nothing changes.
func (s *Service) Reject(ctx context.Context, orderID string, reason entity.RejectionReason, otherText string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.Reject", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.rejection_reason", string(reason)),
	))
	defer span.End()

	stored, ok := entity.ResolveRejectionReason(reason, otherText)
	if !ok {
		return nil, errorbank.Unprocessable("a valid rejection reason is required")
	}

	current, err := s.mustFind(ctx, span, orderID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, span, current, entity.StatusRejected, store.Document{
		"rejectionReason": stored,
	})
}

// InitiatePayment opens the payment flow for an approved order (or retries
// after a failure: every attempt is a fresh independent trial). The order
// passes through payment_pending and lands on payment_completed or
// payment_failed according to the simulator's outcome.
func (s *Service) InitiatePayment(ctx context.Context, orderID, method string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.InitiatePayment", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	current, err := s.mustFind(ctx, span, orderID)
	if err != nil {
		return nil, err
	}

	customer := s.customerFor(ctx, current.UserID)

	pendingPatch := store.Document{
		"paymentStatus": string(entity.PaymentStatusPending),
	}
	if method != "" {
		pendingPatch["paymentMethod"] = method
	}
	pending, err := s.transition(ctx, span, current, entity.StatusPaymentPending, pendingPatch)
	if err != nil {
		return nil, err
	}

	result, err := s.processor.Process(ctx, payment.Request{
		OrderID:       pending.ID,
		Amount:        pending.TotalAmount,
		Currency:      s.currency,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment processor error")
		return nil, errorbank.Internal("payment processing aborted", errorbank.WithCause(err))
	}

	if result.Success {
		return s.transition(ctx, span, pending, entity.StatusPaymentCompleted, store.Document{
			"paymentStatus": string(entity.PaymentStatusCompleted),
			"transactionId": result.TransactionID,
		})
	}

	// A decline is a normal outcome; the order parks on payment_failed with
	// a retry path back through payment_pending.
	return s.transition(ctx, span, pending, entity.StatusPaymentFailed, store.Document{
		"paymentStatus": string(entity.PaymentStatusFailed),
		"transactionId": "",
	})
}

// AdvanceStatus drives the shopkeeper's fulfillment progression:
// payment_completed -> preparing -> ready -> fulfilled.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, next entity.Status) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.AdvanceStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.next_status", string(next)),
	))
	defer span.End()

	switch next {
	case entity.StatusPreparing, entity.StatusReady, entity.StatusFulfilled:
	default:
		return nil, errorbank.Unprocessable("status is not part of the fulfillment progression",
			errorbank.WithDetail("status", string(next)))
	}

	current, err := s.mustFind(ctx, span, orderID)
	if err != nil {
		return nil, err
	}

	patch := store.Document{}
	if next == entity.StatusFulfilled {
		patch["actualPickupTime"] = s.nowFn().Format(time.RFC3339Nano)
	}
	return s.transition(ctx, span, current, next, patch)
}

// Cancel moves any non-terminal order to cancelled.
func (s *Service) Cancel(ctx context.Context, orderID string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.Cancel", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	current, err := s.mustFind(ctx, span, orderID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, span, current, entity.StatusCancelled, store.Document{})
}

// SubmitReview attaches a rating and optional review text to a fulfilled
// order.
func (s *Service) SubmitReview(ctx context.Context, orderID string, rating int, review string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.SubmitReview", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("order.rating", rating),
	))
	defer span.End()

	if rating < 1 || rating > 5 {
		return nil, errorbank.Unprocessable("rating must be between 1 and 5")
	}

	current, err := s.mustFind(ctx, span, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.StatusFulfilled {
		return nil, errorbank.Unprocessable("only fulfilled orders can be reviewed")
	}

	updated, err := s.repo.Update(ctx, orderID, store.Document{
		"rating": rating,
		"review": review,
	})
	if err != nil {
		return nil, s.fail(span, err, "failed to store review")
	}
	s.storeInCacheQuietly(ctx, updated)
	return updated, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		if s.logger != nil {
			s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
		}
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, err, "failed to load order")
	}

	s.storeInCacheQuietly(ctx, order)
	return order, nil
}

// PendingForShop returns the shop's FIFO approval queue.
func (s *Service) PendingForShop(ctx context.Context, shopID string) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.PendingForShop", trace.WithAttributes(
		attribute.String("order.shop_id", shopID),
	))
	defer span.End()

	orders, err := s.repo.FindPendingForShop(ctx, shopID)
	if err != nil {
		return nil, s.fail(span, err, "failed to load pending orders")
	}
	return orders, nil
}

// ByStatus returns a shop's orders in the given status, oldest first.
func (s *Service) ByStatus(ctx context.Context, shopID string, status entity.Status) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.ByStatus", trace.WithAttributes(
		attribute.String("order.shop_id", shopID),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if !status.Valid() {
		return nil, errorbank.BadRequest("unknown status", errorbank.WithDetail("status", string(status)))
	}

	orders, err := s.repo.FindByStatus(ctx, shopID, status)
	if err != nil {
		return nil, s.fail(span, err, "failed to load orders")
	}
	return orders, nil
}

// ByUser returns a customer's order history, oldest first.
func (s *Service) ByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.ByUser", trace.WithAttributes(
		attribute.String("order.user_id", userID),
	))
	defer span.End()

	orders, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, s.fail(span, err, "failed to load orders")
	}
	return orders, nil
}

// Reset clears the whole orders collection.
func (s *Service) Reset(ctx context.Context) error {
	ctx, span := serviceTracer.Start(ctx, "OrderLifecycle.Reset")
	defer span.End()

	if err := s.repo.Reset(ctx); err != nil {
		return s.fail(span, err, "failed to reset orders")
	}
	return nil
}

// transition enforces the lifecycle graph, applies the patch together with
// the status change, and publishes the resulting event. An invalid move is a
// validation failure and leaves the order untouched.
func (s *Service) transition(ctx context.Context, span trace.Span, current *entity.Order, next entity.Status, patch store.Document) (*entity.Order, error) {
	if !current.Status.CanTransition(next) {
		return nil, errorbank.Unprocessable(
			fmt.Sprintf("order cannot move from %s to %s", current.Status, next),
			errorbank.WithDetail("from", string(current.Status)),
			errorbank.WithDetail("to", string(next)),
		)
	}

	patch["status"] = string(next)
	updated, err := s.repo.Update(ctx, current.ID, patch)
	if err != nil {
		return nil, s.fail(span, err, "failed to persist transition")
	}

	s.afterTransition(ctx, updated)
	return updated, nil
}

// mustFind loads an order for mutation; a missing target is a caller-visible
// not_found failure.
func (s *Service) mustFind(ctx context.Context, span trace.Span, orderID string) (*entity.Order, error) {
	current, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, err, "failed to load order")
	}
	return current, nil
}

// fail maps repository errors onto the caller-facing taxonomy. Persistence
// errors from the store pass through unchanged.
func (s *Service) fail(span trace.Span, err error, message string) error {
	var persistErr *store.PersistenceError
	if errors.As(err, &persistErr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence error")
		return persistErr
	}
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("order not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func (s *Service) customerFor(ctx context.Context, userID string) entity.User {
	user, err := s.catalog.FindUser(ctx, userID)
	if err != nil {
		// Payment can proceed without customer details.
		return entity.User{ID: userID}
	}
	return *user
}

func (s *Service) afterTransition(ctx context.Context, order *entity.Order) {
	s.storeInCacheQuietly(ctx, order)
	s.publishEvent(ctx, order)
	if s.logger != nil {
		s.logger.Info("order transitioned",
			zap.String("id", order.ID),
			zap.String("status", string(order.Status)),
			zap.Int("token", order.TokenNumber),
		)
	}
}

// OrderEvent is emitted on every successful lifecycle transition.
type OrderEvent struct {
	EventID     string        `json:"eventId"`
	OrderID     string        `json:"orderId"`
	ShopID      string        `json:"shopId"`
	UserID      string        `json:"userId"`
	Status      entity.Status `json:"status"`
	TotalAmount float64       `json:"totalAmount"`
	TokenNumber int           `json:"tokenNumber"`
	OccurredAt  time.Time     `json:"occurredAt"`
}

func (s *Service) publishEvent(ctx context.Context, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		ShopID:      order.ShopID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		TokenNumber: order.TokenNumber,
		OccurredAt:  s.nowFn(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(order.ID), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.Error(err))
		}
	}
}

func (s *Service) cacheKey(id string) string {
	return "orders:" + id
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCacheQuietly(ctx context.Context, order *entity.Order) {
	if s.cache == nil || order == nil {
		return
	}
	bytes, err := json.Marshal(order)
	if err == nil {
		err = s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}
}
