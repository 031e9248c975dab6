package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

func (r *GormRepo) orderViews(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("orders.id, orders.cart_id, orders.status, orders.created_at, " +
			"carts.user_id, carts.product_id, carts.quantity, carts.total_price").
		Joins("JOIN carts ON carts.id = orders.cart_id")
}

// CreateOrder fails with ErrDuplicate when the cart already has an order.
func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return translate(r.DB.WithContext(ctx).Create(o).Error)
}

func (r *GormRepo) FindOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.orderViews(ctx).Where("orders.id = ?", id).Take(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders returns orders newest first, only userID's when it is set.
func (r *GormRepo) ListOrders(ctx context.Context, userID *uint) ([]models.Order, error) {
	q := r.orderViews(ctx)
	if userID != nil {
		q = q.Where("carts.user_id = ?", *userID)
	}

	orders := []models.Order{}
	if err := q.Order("orders.created_at DESC, orders.id DESC").Find(&orders).Error; err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

func (r *GormRepo) LatestOrder(ctx context.Context, userID uint) (*models.Order, error) {
	var o models.Order
	err := r.orderViews(ctx).
		Where("carts.user_id = ?", userID).
		Order("orders.created_at DESC, orders.id DESC").
		Take(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}
