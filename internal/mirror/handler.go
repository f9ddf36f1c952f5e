package mirror

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/campuscode/canteen/internal/presentation/http/response"
	"github.com/campuscode/canteen/pkg/errorbank"
)

// Module wires the mirror repository and its REST handlers.
var Module = fx.Options(
	fx.Provide(NewRepository),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)

// Handler exposes the mirror's REST-shaped endpoints. These replicate the
// order schema over SQL and are never invoked by the lifecycle engine.
type Handler struct {
	repo *Repository
}

// NewHandler constructs a mirror Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/mirror")
	g.PUT("/orders/:externalId", h.upsertOrder)
	g.GET("/orders/:externalId", h.getOrder)
	g.GET("/shops/:shopId/orders", h.listOrders)
	g.PUT("/shops/:externalId", h.upsertShop)
	g.GET("/shops", h.listShops)
}

type orderPayload struct {
	UserID      string  `json:"userId"`
	ShopID      string  `json:"shopId"`
	TotalAmount float64 `json:"totalAmount"`
	Status      string  `json:"status"`
	TokenNumber int     `json:"tokenNumber"`
}

func (h *Handler) upsertOrder(c echo.Context) error {
	b := response.New(c)

	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Status == "" {
		return b.WithError(errorbank.BadRequest("status is required")).Build()
	}

	now := time.Now().UTC()
	order := &Order{
		ExternalID:  c.Param("externalId"),
		UserID:      payload.UserID,
		ShopID:      payload.ShopID,
		TotalAmount: payload.TotalAmount,
		Status:      payload.Status,
		TokenNumber: payload.TokenNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.UpsertOrder(c.Request().Context(), order); err != nil {
		return b.WithError(errorbank.Internal("failed to mirror order", errorbank.WithCause(err))).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(order).Build()
}

func (h *Handler) getOrder(c echo.Context) error {
	b := response.New(c)

	order, err := h.repo.GetOrder(c.Request().Context(), c.Param("externalId"))
	if errors.Is(err, ErrNotFound) {
		return b.WithError(errorbank.NotFound("order not found")).Build()
	}
	if err != nil {
		return b.WithError(errorbank.Internal("failed to load order", errorbank.WithCause(err))).Build()
	}
	return b.WithData(order).Build()
}

func (h *Handler) listOrders(c echo.Context) error {
	b := response.New(c)

	orders, err := h.repo.ListOrders(c.Request().Context(), c.Param("shopId"))
	if err != nil {
		return b.WithError(errorbank.Internal("failed to list orders", errorbank.WithCause(err))).Build()
	}
	return b.WithData(orders).WithMeta("count", len(orders)).Build()
}

type shopPayload struct {
	Name     string `json:"name"`
	OwnerID  string `json:"ownerId"`
	Location string `json:"location"`
	Open     bool   `json:"open"`
}

func (h *Handler) upsertShop(c echo.Context) error {
	b := response.New(c)

	var payload shopPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	now := time.Now().UTC()
	shop := &Shop{
		ExternalID: c.Param("externalId"),
		Name:       payload.Name,
		OwnerID:    payload.OwnerID,
		Location:   payload.Location,
		Open:       payload.Open,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.repo.UpsertShop(c.Request().Context(), shop); err != nil {
		return b.WithError(errorbank.Internal("failed to mirror shop", errorbank.WithCause(err))).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(shop).Build()
}

func (h *Handler) listShops(c echo.Context) error {
	b := response.New(c)

	shops, err := h.repo.ListShops(c.Request().Context())
	if err != nil {
		return b.WithError(errorbank.Internal("failed to list shops", errorbank.WithCause(err))).Build()
	}
	return b.WithData(shops).Build()
}
