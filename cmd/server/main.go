package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Skotchmaster/shop_api/internal/httpserver"
	"github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/internal/search"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/pkg/config"
	pkgdb "github.com/Skotchmaster/shop_api/pkg/db"
	"github.com/Skotchmaster/shop_api/pkg/logging"
	"github.com/Skotchmaster/shop_api/pkg/mail"
	"github.com/Skotchmaster/shop_api/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL, pkgdb.Pool{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	issuer, err := tokens.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Secure:   cfg.Email.Secure,
		Username: cfg.Email.User,
		Password: cfg.Email.Password,
		FromName: cfg.Email.FromName,
	})
	if err != nil {
		log.Fatalf("mail sender: %v", err)
	}
	go func() {
		vctx, vcancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer vcancel()
		if err := sender.Verify(vctx); err != nil {
			logger.Warn("smtp_verify_failed", "host", cfg.Email.Host, "error", err)
			return
		}
		logger.Info("smtp_ready", "host", cfg.Email.Host)
	}()

	store := repo.New(db)
	users := &service.UserService{Repo: store, Tokens: issuer, Mailer: sender, ResetTTL: cfg.ResetTokenTTL}
	catalog := &service.CatalogService{Repo: store}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := users.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	if cfg.ESURL != "" {
		if index, err := connectSearch(cfg); err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			catalog.Index = index
		}
	}

	e := httpserver.New(logger, &httpserver.Deps{
		DB:             db,
		Gate:           &auth.Gate{Tokens: issuer, Users: store},
		Limiter:        ratelimit.New(cfg.AuthRatePerMinute, cfg.AuthRateBurst),
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Users:          &httpserver.UserHTTP{Svc: users, PublicURL: cfg.PublicURL},
		Catalog:        &httpserver.CatalogHTTP{Svc: catalog},
		Carts:          &httpserver.CartHTTP{Svc: &service.CartService{Repo: store}},
		Orders:         &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: store}},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	users.Flush()
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("shutdown_complete")
}

func connectSearch(cfg config.Config) (*search.Index, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := search.NewClient(ctx, search.Config{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
	})
	if err != nil {
		return nil, err
	}
	index := &search.Index{Client: client, Name: cfg.ESIndex}
	if err := index.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return index, nil
}
