package transport

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_api/internal/models"
)

// Passwords are capped at 72 bytes, the most bcrypt reads.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,max=72"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=72"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

type SetStatusRequest struct {
	IsEnabled *bool `json:"isEnabled" validate:"required"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateProductRequest struct {
	Name       string           `json:"name" validate:"required,max=200"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
	CategoryID uint             `json:"categoryId" validate:"required"`
}

type UpdateProductRequest struct {
	Name       *string          `json:"name" validate:"omitempty,max=200"`
	Price      *decimal.Decimal `json:"price"`
	CategoryID *uint            `json:"categoryId" validate:"omitempty,gt=0"`
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"gt=0"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type CreateOrderRequest struct {
	CartID uint   `json:"cart_id" validate:"required"`
	Status string `json:"status" validate:"required"`
}

type UpdateOrderRequest struct {
	OrderID uint   `json:"order_id" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

type UserResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type CartResponse struct {
	Message string               `json:"message"`
	Data    *models.CartLineView `json:"data"`
}

type OrderResponse struct {
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

type OrdersResponse struct {
	Message string         `json:"message"`
	Orders  []models.Order `json:"orders"`
}
