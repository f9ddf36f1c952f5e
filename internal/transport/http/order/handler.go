package order

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuscode/canteen/internal/dto"
	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/presentation/http/response"
	service "github.com/campuscode/canteen/internal/service/order"
	"github.com/campuscode/canteen/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/campuscode/canteen/transport/http/order")

// Handler exposes order lifecycle endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.submit)
	g.GET("/:id", h.getByID)
	g.POST("/:id/approve", h.approve)
	g.POST("/:id/reject", h.reject)
	g.POST("/:id/payment", h.initiatePayment)
	g.POST("/:id/advance", h.advance)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/:id/review", h.review)

	e.GET("/shops/:shopId/orders/pending", h.pendingForShop)
	e.GET("/shops/:shopId/orders", h.byStatus)
	e.GET("/users/:userId/orders", h.byUser)
}

type submitItemPayload struct {
	MenuItemID string  `json:"menuItemId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPriceAtOrderTime"`
	Notes      string  `json:"notes"`
}

type submitPayload struct {
	UserID        string              `json:"userId"`
	ShopID        string              `json:"shopId"`
	Items         []submitItemPayload `json:"items"`
	PaymentMethod string              `json:"paymentMethod"`
	Notes         string              `json:"notes"`
}

func (h *Handler) submit(c echo.Context) error {
	b := response.New(c)

	var payload submitPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	draft := service.Draft{
		UserID:        payload.UserID,
		ShopID:        payload.ShopID,
		PaymentMethod: payload.PaymentMethod,
		Notes:         payload.Notes,
	}
	for _, item := range payload.Items {
		draft.Items = append(draft.Items, service.DraftItem{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Notes:      item.Notes,
		})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.submit", trace.WithAttributes(
		attribute.String("order.shop_id", payload.ShopID),
	))
	defer span.End()

	order, err := h.svc.Submit(ctx, draft)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
	))
	defer span.End()

	order, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) approve(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		PreparationTime int `json:"preparationTime"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.approve", trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
	))
	defer span.End()

	order, err := h.svc.Approve(ctx, c.Param("id"), payload.PreparationTime)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) reject(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Reason    string `json:"reason"`
		OtherText string `json:"otherText"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.reject", trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
	))
	defer span.End()

	order, err := h.svc.Reject(ctx, c.Param("id"), entity.RejectionReason(payload.Reason), payload.OtherText)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) initiatePayment(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.payment", trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
	))
	defer span.End()

	order, err := h.svc.InitiatePayment(ctx, c.Param("id"), payload.PaymentMethod)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) advance(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.advance", trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
		attribute.String("order.next_status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.AdvanceStatus(ctx, c.Param("id"), entity.Status(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel", trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
	))
	defer span.End()

	order, err := h.svc.Cancel(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) review(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.review", trace.WithAttributes(
		attribute.String("order.id", c.Param("id")),
	))
	defer span.End()

	order, err := h.svc.SubmitReview(ctx, c.Param("id"), payload.Rating, payload.Review)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) pendingForShop(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.pendingForShop", trace.WithAttributes(
		attribute.String("order.shop_id", c.Param("shopId")),
	))
	defer span.End()

	orders, err := h.svc.PendingForShop(ctx, c.Param("shopId"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrders(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) byStatus(c echo.Context) error {
	b := response.New(c)

	status := c.QueryParam("status")
	if status == "" {
		return b.WithError(errorbank.BadRequest("status query parameter is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.byStatus", trace.WithAttributes(
		attribute.String("order.shop_id", c.Param("shopId")),
		attribute.String("order.status", status),
	))
	defer span.End()

	orders, err := h.svc.ByStatus(ctx, c.Param("shopId"), entity.Status(status))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrders(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) byUser(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.byUser", trace.WithAttributes(
		attribute.String("order.user_id", c.Param("userId")),
	))
	defer span.End()

	orders, err := h.svc.ByUser(ctx, c.Param("userId"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrders(orders)).Build()
}
