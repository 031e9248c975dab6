package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type CartService struct {
	Repo *repo.GormRepo
}

// AddToCart puts qty of a product into the user's cart. An existing line for
// the same product that has not been ordered yet absorbs the quantity and
// keeps its price snapshot; otherwise a new line takes the current price.
// created reports which of the two happened.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uint, qty int) (view *models.CartLineView, created bool, err error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if productID == 0 {
		return nil, false, invalid("product_id is required")
	}
	if qty <= 0 {
		return nil, false, invalid("quantity must be greater than 0")
	}

	var lineID uint
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		product, err := tx.FindProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("product")
			}
			return err
		}

		line, err := tx.FindOpenCartLine(ctx, userID, productID)
		switch {
		case err == nil:
			line.Quantity += qty
			line.Recalculate()
			lineID = line.ID
			return tx.SaveCartQuantity(ctx, line)
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		line = &models.Cart{
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
			UnitPrice: product.Price,
		}
		line.Recalculate()
		if err := tx.CreateCart(ctx, line); err != nil {
			return err
		}
		lineID = line.ID
		created = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.Error("add_to_cart_error", "status", 500, "error", err)
		}
		return nil, false, err
	}

	view, err = s.Repo.CartView(ctx, lineID)
	if err != nil {
		return nil, false, err
	}
	l.Info("add_to_cart_success", "cart_id", lineID, "created", created)
	return view, created, nil
}

func (s *CartService) ListCart(ctx context.Context, userID uint, productID *uint) ([]models.CartLineView, error) {
	return s.Repo.ListCartViews(ctx, userID, productID)
}

func (s *CartService) GetCart(ctx context.Context, userID, cartID uint) (*models.CartLineView, error) {
	if _, err := s.Repo.FindUserCart(ctx, userID, cartID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFound("cart")
		}
		return nil, err
	}
	return s.Repo.CartView(ctx, cartID)
}

// UpdateCart sets a new quantity on the caller's line. The total is derived
// from the stored unit price, not the current product price.
func (s *CartService) UpdateCart(ctx context.Context, userID, cartID uint, qty int) (*models.CartLineView, error) {
	l := logging.FromContext(ctx).With("svc", "cart.update")

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		line, err := tx.FindUserCart(ctx, userID, cartID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("cart")
			}
			return err
		}
		if qty <= 0 {
			return invalid("quantity must be greater than 0")
		}
		ordered, err := tx.CartHasOrder(ctx, cartID)
		if err != nil {
			return err
		}
		if ordered {
			return ErrAlreadyOrdered
		}

		line.Quantity = qty
		line.Recalculate()
		return tx.SaveCartQuantity(ctx, line)
	})
	if err != nil {
		l.Warn("update_cart_error", "cart_id", cartID, "error", err)
		return nil, err
	}

	l.Info("update_cart_success", "cart_id", cartID)
	return s.Repo.CartView(ctx, cartID)
}

func (s *CartService) DeleteCart(ctx context.Context, userID, cartID uint) error {
	l := logging.FromContext(ctx).With("svc", "cart.delete")

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.FindUserCart(ctx, userID, cartID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("cart")
			}
			return err
		}
		ordered, err := tx.CartHasOrder(ctx, cartID)
		if err != nil {
			return err
		}
		if ordered {
			return ErrAlreadyOrdered
		}
		return tx.DeleteCart(ctx, cartID)
	})
	if err != nil {
		l.Warn("delete_cart_error", "cart_id", cartID, "error", err)
		return err
	}

	l.Info("delete_cart_success", "cart_id", cartID)
	return nil
}
