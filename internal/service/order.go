package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type OrderService struct {
	Repo *repo.GormRepo
}

func parseStatus(raw string) (models.OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("status is required")
	}
	st, ok := models.ParseOrderStatus(raw)
	if !ok {
		return "", invalid("unknown status %q", raw)
	}
	return st, nil
}

// CreateOrder turns one of the caller's cart lines into an order. A cart line
// can be ordered once; the unique index on orders.cart_id settles races that
// get past the existence check. Orders always start as pending: any other
// status is rejected and has to be reached through UpdateOrderStatus.
func (s *OrderService) CreateOrder(ctx context.Context, userID, cartID uint, status string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	if cartID == 0 {
		return nil, invalid("cart_id is required")
	}
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	if st != models.OrderPending {
		return nil, invalid("new orders must be %s", models.OrderPending)
	}

	cart, err := s.Repo.FindCartByID(ctx, cartID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if cart == nil || cart.UserID != userID {
		l.Warn("create_order_error", "status", 403, "reason", "cart not owned", "cart_id", cartID)
		return nil, ErrCartNotOwned
	}

	ordered, err := s.Repo.CartHasOrder(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if ordered {
		l.Warn("create_order_error", "status", 409, "reason", "already ordered", "cart_id", cartID)
		return nil, ErrAlreadyOrdered
	}

	order := &models.Order{CartID: cartID, Status: st}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("create_order_error", "status", 409, "reason", "already ordered", "cart_id", cartID)
			return nil, ErrAlreadyOrdered
		}
		l.Error("create_order_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("create_order_success", "order_id", order.ID, "cart_id", cartID)
	return s.Repo.FindOrder(ctx, order.ID)
}

// UpdateOrderStatus is an admin action. Pending orders may be completed or
// cancelled; completed and cancelled orders do not change any more.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status")

	if orderID == 0 {
		return nil, invalid("order_id is required")
	}
	next, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		cur, err := tx.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("order")
			}
			return err
		}
		if !cur.Status.CanTransition(next) {
			return ErrInvalidTransition
		}
		if cur.Status != next {
			if err := tx.UpdateOrderStatus(ctx, orderID, next); err != nil {
				return err
			}
			cur.Status = next
		}
		order = cur
		return nil
	})
	if err != nil {
		l.Warn("update_order_status_error", "order_id", orderID, "error", err)
		return nil, err
	}

	l.Info("update_order_status_success", "order_id", orderID, "order_status", next)
	return order, nil
}

func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, &userID)
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, nil)
}

func (s *OrderService) LatestOrderForUser(ctx context.Context, userID uint) (*models.Order, error) {
	o, err := s.Repo.LatestOrder(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("order")
	}
	return o, err
}
