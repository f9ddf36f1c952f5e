package catalog

import (
	"github.com/labstack/echo/v4"

	"github.com/campuscode/canteen/internal/dto"
	"github.com/campuscode/canteen/internal/presentation/http/response"
	"github.com/campuscode/canteen/internal/repository/catalog"
	"github.com/campuscode/canteen/pkg/errorbank"
)

// Handler exposes the read-only shop and menu catalog over HTTP.
type Handler struct {
	repo *catalog.Repository
}

// NewHandler constructs a catalog Handler.
func NewHandler(repo *catalog.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/shops", h.listShops)
	e.GET("/shops/:shopId/menu", h.menuForShop)
}

func (h *Handler) listShops(c echo.Context) error {
	b := response.New(c)

	shops, err := h.repo.ListShops(c.Request().Context())
	if err != nil {
		return b.WithError(errorbank.Internal("failed to load shops", errorbank.WithCause(err))).Build()
	}

	out := make([]dto.ShopResponse, 0, len(shops))
	for _, shop := range shops {
		out = append(out, dto.ShopResponse{
			ID:       shop.ID,
			Name:     shop.Name,
			Location: shop.Location,
			Open:     shop.Open,
		})
	}
	return b.WithData(out).Build()
}

func (h *Handler) menuForShop(c echo.Context) error {
	b := response.New(c)

	items, err := h.repo.MenuForShop(c.Request().Context(), c.Param("shopId"))
	if err != nil {
		return b.WithError(errorbank.Internal("failed to load menu", errorbank.WithCause(err))).Build()
	}

	out := make([]dto.MenuItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.MenuItemResponse{
			ID:              item.ID,
			ShopID:          item.ShopID,
			Name:            item.Name,
			Price:           item.Price,
			PreparationTime: item.PreparationTime,
			Available:       item.Available,
			Category:        item.Category,
		})
	}
	return b.WithData(out).Build()
}
