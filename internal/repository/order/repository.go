package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/store"
)

var repoTracer = otel.Tracer("github.com/campuscode/canteen/repository/order")

// Collection is the record store collection holding orders.
const Collection = "orders"

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository is the typed accessor for orders over the record store. All
// reads come back sorted oldest-first, which makes the pending set a FIFO
// approval queue per shop.
type Repository struct {
	store *store.Store
}

// NewRepository wires a repository backed by the record store.
func NewRepository(st *store.Store) *Repository {
	return &Repository{store: st}
}

// Submit persists a freshly constructed order and returns the stored record
// with its assigned id and timestamps.
func (r *Repository) Submit(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	if order == nil {
		return nil, errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Submit", trace.WithAttributes(
		attribute.String("order.shop_id", order.ShopID),
	))
	defer span.End()

	doc, err := encode(order)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result, err := r.store.Create(ctx, Collection, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}

	stored, err := decode(result.Record)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return stored, nil
}

// FindByID fetches a single order, returning ErrNotFound when absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.FindByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	doc, err := r.store.FindByID(ctx, Collection, id)
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, err
	}
	return decode(doc)
}

// FindPendingForShop returns the shop's approval queue: orders still awaiting
// a decision, oldest first.
func (r *Repository) FindPendingForShop(ctx context.Context, shopID string) ([]entity.Order, error) {
	return r.FindByStatus(ctx, shopID, entity.StatusPendingApproval)
}

// FindByStatus returns a shop's orders in the given status, oldest first.
func (r *Repository) FindByStatus(ctx context.Context, shopID string, status entity.Status) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.FindByStatus", trace.WithAttributes(
		attribute.String("order.shop_id", shopID),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	docs, err := r.store.FindMany(ctx, Collection, store.Document{
		"shopId": shopID,
		"status": string(status),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, err
	}
	return decodeAll(docs)
}

// FindByUser returns every order placed by a user, oldest first.
func (r *Repository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.FindByUser", trace.WithAttributes(
		attribute.String("order.user_id", userID),
	))
	defer span.End()

	docs, err := r.store.FindMany(ctx, Collection, store.Document{"userId": userID})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return decodeAll(docs)
}

// Update merges a patch onto the stored order, returning ErrNotFound when
// the target no longer exists.
func (r *Repository) Update(ctx context.Context, id string, patch store.Document) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	doc, err := r.store.Update(ctx, Collection, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	return decode(doc)
}

// Reset drops the whole orders collection.
func (r *Repository) Reset(ctx context.Context) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Reset")
	defer span.End()

	if err := r.store.Reset(ctx, Collection); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func encode(order *entity.Order) (store.Document, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	// The store owns id assignment and timestamping on create.
	if order.ID == "" {
		delete(doc, "id")
	}
	delete(doc, "createdAt")
	delete(doc, "updatedAt")
	return doc, nil
}

// decode validates a raw document at the store boundary; records with a
// missing id or an unknown status are rejected rather than propagated.
func decode(doc store.Document) (*entity.Order, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	var order entity.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("decode order: missing id")
	}
	if !order.Status.Valid() {
		return nil, fmt.Errorf("decode order %s: unknown status %q", order.ID, order.Status)
	}
	return &order, nil
}

func decodeAll(docs []store.Document) ([]entity.Order, error) {
	orders := make([]entity.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := decode(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}
