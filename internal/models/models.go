package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name         string    `gorm:"not null"                   json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash string    `gorm:"column:password;not null"   json:"-"`
	Role         string    `gorm:"not null"                   json:"role"`
	IsEnabled    bool      `gorm:"not null"                   json:"isEnabled"`
	CreatedAt    time.Time `                                  json:"createdAt"`

	ResetTokenHash   *string    `gorm:"column:reset_password_token;index" json:"-"`
	ResetTokenExpiry *time.Time `gorm:"column:reset_password_expire"      json:"-"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null"                 json:"name"`
}

type Product struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"               json:"id"`
	Name       string          `gorm:"not null"                               json:"name"`
	Price      decimal.Decimal `gorm:"type:numeric(10,2);not null"            json:"price"`
	CategoryID uint            `gorm:"not null;index"                         json:"categoryId"`
	Category   *Category       `gorm:"constraint:OnDelete:RESTRICT"           json:"category,omitempty"`
}

// Cart is one cart line. UnitPrice is the product price at the time the line
// was created and TotalPrice is always UnitPrice * Quantity.
type Cart struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"         json:"id"`
	ProductID  uint            `gorm:"not null;index"                   json:"productId"`
	UserID     uint            `gorm:"not null;index"                   json:"userId"`
	Quantity   int             `gorm:"not null;check:quantity > 0"      json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null"      json:"unitPrice"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"totalPrice"`

	Product *Product `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	User    *User    `gorm:"constraint:OnDelete:CASCADE"  json:"-"`
}

func (Cart) TableName() string { return "carts" }

// Recalculate keeps TotalPrice consistent with the stored snapshot.
func (c *Cart) Recalculate() {
	c.TotalPrice = c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CartLineView is a cart line joined with its user, product and category names.
type CartLineView struct {
	ID           uint            `json:"id"`
	ProductID    uint            `json:"productId"`
	UserID       uint            `json:"userId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	UserName     string          `json:"userName"`
	ProductName  string          `json:"productName"`
	CategoryID   uint            `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
}

type Order struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"         json:"id"`
	CartID    uint        `gorm:"uniqueIndex;not null"             json:"cartId"`
	Status    OrderStatus `gorm:"type:varchar(16);not null"        json:"status"`
	CreatedAt time.Time   `gorm:"index"                            json:"createdAt"`

	Cart *Cart `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// Filled from the cart line on reads.
	UserID     uint            `gorm:"->;-:migration" json:"userId"`
	ProductID  uint            `gorm:"->;-:migration" json:"productId"`
	Quantity   int             `gorm:"->;-:migration" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"->;-:migration" json:"totalPrice"`
}
