package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_api/internal/models"
)

const cartViewColumns = `carts.id, carts.product_id, carts.user_id, carts.quantity,
	carts.unit_price, carts.total_price,
	users.name AS user_name, products.name AS product_name,
	products.category_id, categories.name AS category_name`

func (r *GormRepo) cartViews(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Table("carts").
		Select(cartViewColumns).
		Joins("JOIN users ON users.id = carts.user_id").
		Joins("JOIN products ON products.id = carts.product_id").
		Joins("JOIN categories ON categories.id = products.category_id")
}

func (r *GormRepo) CreateCart(ctx context.Context, c *models.Cart) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

// FindOpenCartLine returns the caller's line for productID that no order
// references yet, locking it for the rest of the transaction.
func (r *GormRepo) FindOpenCartLine(ctx context.Context, userID, productID uint) (*models.Cart, error) {
	var c models.Cart
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Where("NOT EXISTS (SELECT 1 FROM orders WHERE orders.cart_id = carts.id)").
		Order("id").
		Take(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormRepo) FindCartByID(ctx context.Context, cartID uint) (*models.Cart, error) {
	var c models.Cart
	if err := r.DB.WithContext(ctx).Where("id = ?", cartID).Take(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindUserCart returns the line only when userID owns it.
func (r *GormRepo) FindUserCart(ctx context.Context, userID, cartID uint) (*models.Cart, error) {
	var c models.Cart
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", cartID, userID).
		Take(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// SaveCartQuantity persists quantity and the recomputed total.
func (r *GormRepo) SaveCartQuantity(ctx context.Context, c *models.Cart) error {
	res := r.DB.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", c.ID).Updates(map[string]any{
		"quantity":    c.Quantity,
		"total_price": c.TotalPrice,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteCart(ctx context.Context, cartID uint) error {
	res := r.DB.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) CartHasOrder(ctx context.Context, cartID uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("cart_id = ?", cartID).Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *GormRepo) CartView(ctx context.Context, cartID uint) (*models.CartLineView, error) {
	var views []models.CartLineView
	if err := r.cartViews(ctx).Where("carts.id = ?", cartID).Limit(1).Scan(&views).Error; err != nil {
		return nil, translate(err)
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (r *GormRepo) ListCartViews(ctx context.Context, userID uint, productID *uint) ([]models.CartLineView, error) {
	q := r.cartViews(ctx).Where("carts.user_id = ?", userID)
	if productID != nil {
		q = q.Where("carts.product_id = ?", *productID)
	}

	views := []models.CartLineView{}
	if err := q.Order("carts.id").Scan(&views).Error; err != nil {
		return nil, translate(err)
	}
	return views, nil
}
