package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/internal/testutil"
	"github.com/Skotchmaster/shop_api/pkg/mail"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type testEnv struct {
	DB     *gorm.DB
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Mailer *mockSender
	Users  *UserService
	Cat    *CatalogService
	Carts  *CartService
	Orders *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	issuer, err := tokens.NewIssuer([]byte("test-jwt-secret"), time.Hour)
	require.NoError(t, err)
	sender := &mockSender{}

	return &testEnv{
		DB:     gdb,
		Repo:   r,
		Tokens: issuer,
		Mailer: sender,
		Users:  &UserService{Repo: r, Tokens: issuer, Mailer: sender, ResetTTL: 10 * time.Minute},
		Cat:    &CatalogService{Repo: r},
		Carts:  &CartService{Repo: r},
		Orders: &OrderService{Repo: r},
	}
}
