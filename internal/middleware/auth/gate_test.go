package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

type stubUsers map[uint]*models.User

func (s stubUsers) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func newGate(t *testing.T) (*Gate, *tokens.Issuer) {
	t.Helper()

	issuer, err := tokens.NewIssuer([]byte("gate-secret"), time.Hour)
	require.NoError(t, err)
	users := stubUsers{
		1: {ID: 1, Email: "ana@x.com", Role: models.RoleUser, IsEnabled: true},
		2: {ID: 2, Email: "off@x.com", Role: models.RoleUser, IsEnabled: false},
		3: {ID: 3, Email: "root@x.com", Role: models.RoleAdmin, IsEnabled: true},
	}
	return &Gate{Tokens: issuer, Users: users}, issuer
}

func tokenFor(t *testing.T, issuer *tokens.Issuer, id uint, role string) string {
	t.Helper()

	tok, err := issuer.IssueDefault(tokens.Claims{UserID: id, Role: role})
	require.NoError(t, err)
	return tok
}

func serve(h echo.HandlerFunc, authHeader string) (int, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code, err
	}
	return rec.Code, err
}

func TestGate_RequireAuth(t *testing.T) {
	t.Parallel()

	gate, issuer := newGate(t)
	other, err := tokens.NewIssuer([]byte("someone-else"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{name: "no header", header: "", wantStatus: 401, wantMsg: "not authorized, token missing"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: 401, wantMsg: "not authorized, token missing"},
		{name: "empty bearer", header: "Bearer ", wantStatus: 401, wantMsg: "not authorized, token missing"},
		{name: "garbage", header: "Bearer nope", wantStatus: 401, wantMsg: "invalid token"},
		{name: "foreign signature", header: "Bearer " + tokenFor(t, other, 1, models.RoleUser), wantStatus: 401, wantMsg: "invalid token"},
		{name: "deleted user", header: "Bearer " + tokenFor(t, issuer, 99, models.RoleUser), wantStatus: 401, wantMsg: "user not found"},
		{name: "disabled user", header: "Bearer " + tokenFor(t, issuer, 2, models.RoleUser), wantStatus: 403, wantMsg: "account disabled"},
		{name: "ok", header: "Bearer " + tokenFor(t, issuer, 1, models.RoleUser), wantStatus: 200},
		{name: "lowercase scheme", header: "bearer " + tokenFor(t, issuer, 1, models.RoleUser), wantStatus: 200},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen *models.User
			h := gate.RequireAuth(func(c echo.Context) error {
				seen = CurrentUser(c)
				return c.NoContent(http.StatusOK)
			})

			status, err := serve(h, tt.header)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantMsg != "" {
				var he *echo.HTTPError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, tt.wantMsg, he.Message)
				assert.Nil(t, seen)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, seen)
			assert.Equal(t, uint(1), seen.ID)
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	gate, issuer := newGate(t)
	h := gate.RequireAuth(RequireAdmin(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))

	status, err := serve(h, "Bearer "+tokenFor(t, issuer, 1, models.RoleUser))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Error(t, err)

	// the role comes from the stored user, not from the token
	status, err = serve(h, "Bearer "+tokenFor(t, issuer, 3, models.RoleUser))
	assert.Equal(t, http.StatusOK, status)
	assert.NoError(t, err)

	bare := RequireRole(models.RoleAdmin)(func(c echo.Context) error { return nil })
	status, _ = serve(bare, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
