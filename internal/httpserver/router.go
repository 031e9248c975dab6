package httpserver

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/pkg/db"
	"github.com/Skotchmaster/shop_api/pkg/logging"
	loggingmw "github.com/Skotchmaster/shop_api/pkg/middleware/logging"
	"github.com/Skotchmaster/shop_api/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/shop_api/pkg/validate"
)

type Deps struct {
	DB      *gorm.DB
	Gate    *auth.Gate
	Limiter *ratelimit.Limiter

	// CORSOrigins empty means any origin.
	CORSOrigins []string
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed. Empty means
	// the client IP is the peer address.
	TrustedProxies []string

	Users   *UserHTTP
	Catalog *CatalogHTTP
	Carts   *CartHTTP
	Orders  *OrderHTTP
}

// New builds the echo instance with the shared middleware chain and all routes.
func New(logger *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.IPExtractor = ipExtractor(logger, d.TrustedProxies)

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: d.CORSOrigins}))
	e.Use(echomw.BodyLimit("1M"))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	limited := d.Limiter.Middleware()
	authed := d.Gate.RequireAuth
	adminOnly := []echo.MiddlewareFunc{d.Gate.RequireAuth, auth.RequireAdmin}

	api := e.Group("/api")

	users := api.Group("/users")
	users.POST("/signup", d.Users.SignUp, limited)
	users.POST("/login", d.Users.Login, limited)
	users.POST("/forgotpassword", d.Users.ForgotPassword, limited)
	users.POST("/resetpassword/:token", d.Users.ResetPassword, limited)
	users.GET("/profile", d.Users.Profile, authed)
	users.PUT("/profile", d.Users.UpdateProfile, authed)
	users.PUT("/changepassword", d.Users.ChangePassword, authed)
	users.DELETE("/user/:id", d.Users.DeleteUser, adminOnly...)
	users.PATCH("/user/:id/status", d.Users.SetStatus, adminOnly...)

	categories := api.Group("/categories")
	categories.GET("", d.Catalog.ListCategories)
	categories.GET("/:id", d.Catalog.GetCategory)
	categories.POST("", d.Catalog.CreateCategory, adminOnly...)
	categories.PUT("/:id", d.Catalog.UpdateCategory, adminOnly...)
	categories.DELETE("/:id", d.Catalog.DeleteCategory, adminOnly...)

	products := api.Group("/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, adminOnly...)
	products.PUT("/:id", d.Catalog.UpdateProduct, adminOnly...)
	products.DELETE("/:id", d.Catalog.DeleteProduct, adminOnly...)

	carts := api.Group("/carts", authed)
	carts.POST("/add", d.Carts.AddToCart)
	carts.GET("/all", d.Carts.ListCart)
	carts.GET("/:id", d.Carts.GetCart)
	carts.PUT("/update/:id", d.Carts.UpdateCart)
	carts.DELETE("/delete/:id", d.Carts.DeleteCart)

	orders := api.Group("/orders", authed)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("/my", d.Orders.ListMine)
	orders.GET("/latest", d.Orders.Latest)
	orders.GET("/all", d.Orders.ListAll, auth.RequireAdmin)
	orders.PUT("/update", d.Orders.UpdateStatus, auth.RequireAdmin)
}

// ipExtractor decides what c.RealIP returns, which keys the rate limiter.
// Forwarded headers are only honored when they come from a trusted proxy.
func ipExtractor(logger *slog.Logger, proxies []string) echo.IPExtractor {
	var opts []echo.TrustOption
	for _, cidr := range proxies {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Warn("trusted_proxy_ignored", "cidr", cidr, "error", err)
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipnet))
	}
	if len(opts) == 0 {
		return echo.ExtractIPDirect()
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func (d *Deps) ready(c echo.Context) error {
	if err := db.Ping(c.Request().Context(), d.DB); err != nil {
		logging.FromContext(c.Request().Context()).Error("readiness_failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.NoContent(http.StatusOK)
}
