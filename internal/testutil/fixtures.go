package testutil

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/pkg/hash"
)

const Password = "Secret123"

var (
	digestOnce     sync.Once
	passwordDigest string
	digestErr      error
)

// SeedUser inserts an enabled user whose password is Password.
func SeedUser(t testing.TB, gdb *gorm.DB, name, email, role string) *models.User {
	t.Helper()

	digestOnce.Do(func() { passwordDigest, digestErr = hash.HashPassword(Password) })
	if digestErr != nil {
		t.Fatalf("hash: %v", digestErr)
	}
	u := &models.User{Name: name, Email: email, PasswordHash: passwordDigest, Role: role, IsEnabled: true}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(t testing.TB, gdb *gorm.DB, name string) *models.Category {
	t.Helper()

	c := &models.Category{Name: name}
	if err := gdb.Create(c).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedProduct(t testing.TB, gdb *gorm.DB, name, price string, categoryID uint) *models.Product {
	t.Helper()

	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), CategoryID: categoryID}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedCart(t testing.TB, gdb *gorm.DB, userID uint, p *models.Product, qty int) *models.Cart {
	t.Helper()

	c := &models.Cart{UserID: userID, ProductID: p.ID, Quantity: qty, UnitPrice: p.Price}
	c.Recalculate()
	if err := gdb.Create(c).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return c
}
