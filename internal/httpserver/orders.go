package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/transport"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.CreateOrderRequest
	if err := bind(c, l, "create_order_error", &req); err != nil {
		return err
	}

	order, err := h.Svc.CreateOrder(ctx, auth.CurrentUser(c).ID, req.CartID, req.Status)
	if err != nil {
		return fail(l, "create_order_error", err)
	}
	return c.JSON(http.StatusCreated, transport.OrderResponse{Message: "Order created successfully", Order: order})
}

func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	orders, err := h.Svc.ListAllOrders(ctx)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.OrdersResponse{Message: "All orders retrieved successfully", Orders: orders})
}

func (h *OrderHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_mine")

	orders, err := h.Svc.ListOrdersForUser(ctx, auth.CurrentUser(c).ID)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.OrdersResponse{Message: "Your orders retrieved successfully", Orders: orders})
}

func (h *OrderHTTP) Latest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.latest")

	order, err := h.Svc.LatestOrderForUser(ctx, auth.CurrentUser(c).ID)
	if err != nil {
		return fail(l, "latest_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.OrderResponse{Message: "Latest order retrieved successfully", Order: order})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	var req transport.UpdateOrderRequest
	if err := bind(c, l, "update_order_error", &req); err != nil {
		return err
	}

	order, err := h.Svc.UpdateOrderStatus(ctx, req.OrderID, req.Status)
	if err != nil {
		return fail(l, "update_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.OrderResponse{Message: "Order updated successfully", Order: order})
}
