package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/search"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) IndexProduct(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockIndex) DeleteProduct(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockIndex) Search(ctx context.Context, query string, from, size int) (int64, []search.ProductDoc, error) {
	args := m.Called(ctx, query, from, size)
	docs, _ := args.Get(1).([]search.ProductDoc)
	return args.Get(0).(int64), docs, args.Error(2)
}

func ptr[T any](v T) *T { return &v }

func TestCatalogService_Categories(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Cat.CreateCategory(ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	books, err := env.Cat.CreateCategory(ctx, " Books ")
	require.NoError(t, err)
	assert.Equal(t, "Books", books.Name)

	renamed, err := env.Cat.UpdateCategory(ctx, books.ID, "Paper")
	require.NoError(t, err)
	assert.Equal(t, "Paper", renamed.Name)

	_, err = env.Cat.UpdateCategory(ctx, 999, "X")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.Cat.GetCategory(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	testutil.SeedProduct(t, env.DB, "Go", "10.00", books.ID)
	err = env.Cat.DeleteCategory(ctx, books.ID)
	assert.ErrorIs(t, err, ErrConflict)

	empty, err := env.Cat.CreateCategory(ctx, "Empty")
	require.NoError(t, err)
	require.NoError(t, env.Cat.DeleteCategory(ctx, empty.ID))
	assert.ErrorIs(t, env.Cat.DeleteCategory(ctx, empty.ID), ErrNotFound)

	all, err := env.Cat.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Paper", all[0].Name)
}

func TestCatalogService_CreateProduct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, env.DB, "Books")

	tests := []struct {
		name    string
		in      ProductInput
		wantErr error
	}{
		{
			name:    "missing name",
			in:      ProductInput{Price: ptr(dec("1")), CategoryID: ptr(cat.ID)},
			wantErr: ErrValidation,
		},
		{
			name:    "negative price",
			in:      ProductInput{Name: ptr("Go"), Price: ptr(dec("-1")), CategoryID: ptr(cat.ID)},
			wantErr: ErrValidation,
		},
		{
			name:    "missing category",
			in:      ProductInput{Name: ptr("Go"), Price: ptr(dec("1"))},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown category",
			in:      ProductInput{Name: ptr("Go"), Price: ptr(dec("1")), CategoryID: ptr(uint(999))},
			wantErr: ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := env.Cat.CreateProduct(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("rounds price and loads category", func(t *testing.T) {
		t.Parallel()

		p, err := env.Cat.CreateProduct(ctx, ProductInput{
			Name:       ptr("  The Go Book "),
			Price:      ptr(dec("19.999")),
			CategoryID: ptr(cat.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, "The Go Book", p.Name)
		assert.True(t, dec("20.00").Equal(p.Price))
		require.NotNil(t, p.Category)
		assert.Equal(t, "Books", p.Category.Name)
	})
}

func TestCatalogService_UpdateAndDeleteProduct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	books := testutil.SeedCategory(t, env.DB, "Books")
	games := testutil.SeedCategory(t, env.DB, "Games")
	p := testutil.SeedProduct(t, env.DB, "Go", "10.00", books.ID)

	updated, err := env.Cat.UpdateProduct(ctx, p.ID, ProductInput{Price: ptr(dec("12.5")), CategoryID: ptr(games.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Go", updated.Name)
	assert.True(t, dec("12.50").Equal(updated.Price))
	assert.Equal(t, games.ID, updated.CategoryID)

	_, err = env.Cat.UpdateProduct(ctx, p.ID, ProductInput{Name: ptr(" ")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.Cat.UpdateProduct(ctx, p.ID, ProductInput{CategoryID: ptr(uint(999))})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.Cat.UpdateProduct(ctx, 999, ProductInput{Name: ptr("X")})
	assert.ErrorIs(t, err, ErrNotFound)

	user := testutil.SeedUser(t, env.DB, "Ana", "ana@x.com", models.RoleUser)
	line := testutil.SeedCart(t, env.DB, user.ID, p, 1)
	assert.ErrorIs(t, env.Cat.DeleteProduct(ctx, p.ID), ErrConflict)

	require.NoError(t, env.Repo.DeleteCart(ctx, line.ID))
	require.NoError(t, env.Cat.DeleteProduct(ctx, p.ID))
	_, err = env.Cat.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_ListProducts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	books := testutil.SeedCategory(t, env.DB, "Books")
	games := testutil.SeedCategory(t, env.DB, "Games")
	for _, name := range []string{"A", "B", "C"} {
		testutil.SeedProduct(t, env.DB, name, "1.00", books.ID)
	}
	testutil.SeedProduct(t, env.DB, "D", "1.00", games.ID)

	page, err := env.Cat.ListProducts(ctx, 2, 2, nil)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(4), page.Meta.Total)
	assert.True(t, page.Meta.HasPrev)
	assert.False(t, page.Meta.HasNext)

	filtered, err := env.Cat.ListProducts(ctx, 1, 10, &games.ID)
	require.NoError(t, err)
	require.Len(t, filtered.Data, 1)
	assert.Equal(t, "D", filtered.Data[0].Name)
}

func TestCatalogService_SearchWithoutIndex(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, env.DB, "Books")
	testutil.SeedProduct(t, env.DB, "Learning Go", "1.00", cat.ID)
	testutil.SeedProduct(t, env.DB, "Rust", "1.00", cat.ID)

	_, err := env.Cat.SearchProducts(ctx, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	res, err := env.Cat.SearchProducts(ctx, "go", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Learning Go", res.Data[0].Name)
}

func TestCatalogService_SearchUsesIndex(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, env.DB, "Books")
	a := testutil.SeedProduct(t, env.DB, "Learning Go", "1.00", cat.ID)
	b := testutil.SeedProduct(t, env.DB, "Go in Action", "1.00", cat.ID)

	idx := &mockIndex{}
	// 42 no longer exists in the datastore and is dropped
	idx.On("Search", mock.Anything, "go", 0, 10).
		Return(int64(3), []search.ProductDoc{{ID: b.ID}, {ID: 42}, {ID: a.ID}}, nil).Once()
	env.Cat.Index = idx

	res, err := env.Cat.SearchProducts(ctx, "go", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, b.ID, res.Data[0].ID)
	assert.Equal(t, a.ID, res.Data[1].ID)
	assert.Equal(t, int64(3), res.Meta.Total)
	idx.AssertExpectations(t)
}

func TestCatalogService_SearchFallsBackOnIndexError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, env.DB, "Books")
	testutil.SeedProduct(t, env.DB, "Learning Go", "1.00", cat.ID)

	idx := &mockIndex{}
	idx.On("Search", mock.Anything, "go", 0, 10).Return(int64(0), nil, errors.New("cluster down")).Once()
	env.Cat.Index = idx

	res, err := env.Cat.SearchProducts(ctx, "go", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(1), res.Meta.Total)
	idx.AssertExpectations(t)
}

func TestCatalogService_IndexSync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, env.DB, "Books")

	idx := &mockIndex{}
	idx.On("IndexProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "Go"
	})).Return(errors.New("index unavailable")).Once()
	env.Cat.Index = idx

	// index failures never fail the write
	p, err := env.Cat.CreateProduct(ctx, ProductInput{Name: ptr("Go"), Price: ptr(dec("5")), CategoryID: ptr(cat.ID)})
	require.NoError(t, err)

	idx.On("DeleteProduct", mock.Anything, p.ID).Return(nil).Once()
	require.NoError(t, env.Cat.DeleteProduct(ctx, p.ID))
	idx.AssertExpectations(t)
}
