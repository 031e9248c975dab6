package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

type shopFixture struct {
	Ana, Bob *models.User
	Category *models.Category
	Product  *models.Product
}

func seedShop(t *testing.T, env *testEnv) shopFixture {
	t.Helper()

	cat := testutil.SeedCategory(t, env.DB, "Books")
	return shopFixture{
		Ana:      testutil.SeedUser(t, env.DB, "Ana", "ana@x.com", models.RoleUser),
		Bob:      testutil.SeedUser(t, env.DB, "Bob", "bob@x.com", models.RoleUser),
		Category: cat,
		Product:  testutil.SeedProduct(t, env.DB, "Go", "500.00", cat.ID),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCartService_AddToCart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)

	view, created, err := env.Carts.AddToCart(ctx, f.Ana.ID, f.Product.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, dec("500").Equal(view.UnitPrice))
	assert.True(t, dec("1000").Equal(view.TotalPrice))
	assert.Equal(t, "Ana", view.UserName)
	assert.Equal(t, "Go", view.ProductName)
	assert.Equal(t, "Books", view.CategoryName)
}

func TestCartService_AddToCartMergesOpenLine(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)

	first, _, err := env.Carts.AddToCart(ctx, f.Ana.ID, f.Product.ID, 1)
	require.NoError(t, err)

	// later price changes do not touch the snapshot of the open line
	_, err = env.Repo.UpdateProduct(ctx, f.Product.ID, map[string]any{"price": dec("600.00")})
	require.NoError(t, err)

	merged, created, err := env.Carts.AddToCart(ctx, f.Ana.ID, f.Product.ID, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)
	assert.True(t, dec("1500").Equal(merged.TotalPrice))

	_, err = env.Orders.CreateOrder(ctx, f.Ana.ID, first.ID, "pending")
	require.NoError(t, err)

	fresh, created, err := env.Carts.AddToCart(ctx, f.Ana.ID, f.Product.ID, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, fresh.ID)
	assert.True(t, dec("600").Equal(fresh.UnitPrice))
}

func TestCartService_AddToCartErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)

	tests := []struct {
		name      string
		productID uint
		qty       int
		wantErr   error
	}{
		{name: "zero quantity", productID: f.Product.ID, qty: 0, wantErr: ErrValidation},
		{name: "negative quantity", productID: f.Product.ID, qty: -3, wantErr: ErrValidation},
		{name: "missing product id", productID: 0, qty: 1, wantErr: ErrValidation},
		{name: "unknown product", productID: 999, qty: 1, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := env.Carts.AddToCart(ctx, f.Ana.ID, tt.productID, tt.qty)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCartService_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)

	line, _, err := env.Carts.AddToCart(ctx, f.Ana.ID, f.Product.ID, 1)
	require.NoError(t, err)

	_, err = env.Repo.UpdateProduct(ctx, f.Product.ID, map[string]any{"price": dec("1.00")})
	require.NoError(t, err)

	for _, qty := range []int{1, 4, 7} {
		got, err := env.Carts.UpdateCart(ctx, f.Ana.ID, line.ID, qty)
		require.NoError(t, err)
		assert.Equal(t, qty, got.Quantity)
		assert.True(t, got.UnitPrice.Mul(decimal.NewFromInt(int64(qty))).Equal(got.TotalPrice))
		assert.True(t, dec("500").Equal(got.UnitPrice))
	}

	_, err = env.Carts.UpdateCart(ctx, f.Ana.ID, line.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.Carts.UpdateCart(ctx, f.Bob.ID, line.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.Carts.GetCart(ctx, f.Bob.ID, line.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.Carts.DeleteCart(ctx, f.Bob.ID, line.ID), ErrNotFound)

	got, err := env.Carts.GetCart(ctx, f.Ana.ID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)

	require.NoError(t, env.Carts.DeleteCart(ctx, f.Ana.ID, line.ID))
	lines, err := env.Carts.ListCart(ctx, f.Ana.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartService_OrderedLineIsFrozen(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)

	line, _, err := env.Carts.AddToCart(ctx, f.Ana.ID, f.Product.ID, 1)
	require.NoError(t, err)
	_, err = env.Orders.CreateOrder(ctx, f.Ana.ID, line.ID, "pending")
	require.NoError(t, err)

	_, err = env.Carts.UpdateCart(ctx, f.Ana.ID, line.ID, 5)
	assert.ErrorIs(t, err, ErrAlreadyOrdered)
	assert.ErrorIs(t, env.Carts.DeleteCart(ctx, f.Ana.ID, line.ID), ErrAlreadyOrdered)
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)
	line := testutil.SeedCart(t, env.DB, f.Ana.ID, f.Product, 2)

	_, err := env.Orders.CreateOrder(ctx, f.Bob.ID, line.ID, "pending")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.Orders.CreateOrder(ctx, f.Ana.ID, 999, "pending")
	assert.ErrorIs(t, err, ErrForbidden)

	for _, bad := range []string{"", "shipped", "completed"} {
		_, err = env.Orders.CreateOrder(ctx, f.Ana.ID, line.ID, bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
	_, err = env.Orders.CreateOrder(ctx, f.Ana.ID, 0, "pending")
	assert.ErrorIs(t, err, ErrValidation)

	order, err := env.Orders.CreateOrder(ctx, f.Ana.ID, line.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, f.Ana.ID, order.UserID)
	assert.True(t, dec("1000").Equal(order.TotalPrice))

	_, err = env.Orders.CreateOrder(ctx, f.Ana.ID, line.ID, "pending")
	assert.ErrorIs(t, err, ErrAlreadyOrdered)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOrderService_CreateOrderConcurrent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)
	line := testutil.SeedCart(t, env.DB, f.Ana.ID, f.Product, 1)

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Orders.CreateOrder(ctx, f.Ana.ID, line.ID, "pending")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyOrdered)
	}
	assert.Equal(t, 1, ok)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)
	line := testutil.SeedCart(t, env.DB, f.Ana.ID, f.Product, 1)
	order, err := env.Orders.CreateOrder(ctx, f.Ana.ID, line.ID, "pending")
	require.NoError(t, err)

	_, err = env.Orders.UpdateOrderStatus(ctx, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.Orders.UpdateOrderStatus(ctx, 999, "completed")
	assert.ErrorIs(t, err, ErrNotFound)

	same, err := env.Orders.UpdateOrderStatus(ctx, order.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, same.Status)

	done, err := env.Orders.UpdateOrderStatus(ctx, order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, done.Status)

	_, err = env.Orders.UpdateOrderStatus(ctx, order.ID, "pending")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.Orders.UpdateOrderStatus(ctx, order.ID, "cancelled")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_Reads(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	f := seedShop(t, env)

	_, err := env.Orders.LatestOrderForUser(ctx, f.Ana.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var ids []uint
	for i := 0; i < 2; i++ {
		line := testutil.SeedCart(t, env.DB, f.Ana.ID, f.Product, 1)
		o, err := env.Orders.CreateOrder(ctx, f.Ana.ID, line.ID, "pending")
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	bobLine := testutil.SeedCart(t, env.DB, f.Bob.ID, f.Product, 1)
	_, err = env.Orders.CreateOrder(ctx, f.Bob.ID, bobLine.ID, "pending")
	require.NoError(t, err)

	mine, err := env.Orders.ListOrdersForUser(ctx, f.Ana.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, f.Ana.ID, o.UserID)
	}

	all, err := env.Orders.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := env.Orders.LatestOrderForUser(ctx, f.Ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[1], latest.ID)
}
