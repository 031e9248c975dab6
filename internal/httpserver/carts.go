package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/transport"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := bind(c, l, "add_to_cart_error", &req); err != nil {
		return err
	}

	view, created, err := h.Svc.AddToCart(ctx, auth.CurrentUser(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	if created {
		return c.JSON(http.StatusCreated, transport.CartResponse{Message: "Cart item created successfully", Data: view})
	}
	return c.JSON(http.StatusOK, transport.CartResponse{Message: "Cart item updated successfully", Data: view})
}

func (h *CartHTTP) ListCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.list")

	productID, err := queryID(c, "product_id")
	if err != nil {
		l.Warn("list_cart_error", "status", 400, "reason", "bad product_id")
		return err
	}

	lines, err := h.Svc.ListCart(ctx, auth.CurrentUser(c).ID, productID)
	if err != nil {
		return fail(l, "list_cart_error", err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	id, err := paramID(c, l, "get_cart_error", "id")
	if err != nil {
		return err
	}
	view, err := h.Svc.GetCart(ctx, auth.CurrentUser(c).ID, id)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	id, err := paramID(c, l, "update_cart_error", "id")
	if err != nil {
		return err
	}
	var req transport.UpdateCartRequest
	if err := bind(c, l, "update_cart_error", &req); err != nil {
		return err
	}

	view, err := h.Svc.UpdateCart(ctx, auth.CurrentUser(c).ID, id, req.Quantity)
	if err != nil {
		return fail(l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.CartResponse{Message: "Cart updated successfully", Data: view})
}

func (h *CartHTTP) DeleteCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete")

	id, err := paramID(c, l, "delete_cart_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCart(ctx, auth.CurrentUser(c).ID, id); err != nil {
		return fail(l, "delete_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Cart deleted successfully"})
}
