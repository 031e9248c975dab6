package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort     int
	PublicURL      string
	CORSOrigins    []string
	TrustedProxies []string

	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret     []byte
	JWTExpiresIn  time.Duration
	ResetTokenTTL time.Duration

	Email EmailConfig

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	AuthRatePerMinute int
	AuthRateBurst     int

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type EmailConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	FromName string
}

// Load reads .env (when present) and the process environment. Missing
// mandatory values terminate the process.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shop_api"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort:     EnvIntDefault("SERVER_PORT", 8080),
		PublicURL:      strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		CORSOrigins:    CSV(os.Getenv("CORS_ORIGINS")),
		TrustedProxies: CSV(os.Getenv("TRUSTED_PROXIES")),

		DatabaseURL:    DatabaseURL(),
		DBMaxOpenConns: EnvIntDefault("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns: EnvIntDefault("DB_MAX_IDLE_CONNS", 10),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		JWTExpiresIn:  EnvDurationDefault("JWT_EXPIRES_IN", time.Hour),
		ResetTokenTTL: EnvDurationDefault("RESET_TOKEN_TTL", 10*time.Minute),

		Email: EmailConfig{
			Host:     EnvDefault("EMAIL_HOST", "smtp.gmail.com"),
			Port:     EnvIntDefault("EMAIL_PORT", 587),
			Secure:   EnvBoolDefault("EMAIL_SECURE", false),
			User:     os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			FromName: EnvDefault("EMAIL_FROM_NAME", "No Reply"),
		},

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		AuthRatePerMinute: EnvIntDefault("AUTH_RATE_PER_MINUTE", 30),
		AuthRateBurst:     EnvIntDefault("AUTH_RATE_BURST", 10),

		AdminName:     EnvDefault("ADMIN_NAME", "Administrator"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmpty(cfg.PublicURL, "PUBLIC_URL")
	MustNonEmpty(cfg.Email.User, "EMAIL_USER")
	MustNonEmpty(cfg.Email.Password, "EMAIL_PASS")
	MustPositive(cfg.JWTExpiresIn, "JWT_EXPIRES_IN")
	MustPositive(cfg.ResetTokenTTL, "RESET_TOKEN_TTL")

	return cfg
}

// DatabaseURL prefers DATABASE_URL and falls back to the DB_* parts.
func DatabaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     fmt.Sprintf("%s:%s", host, EnvDefault("DB_PORT", "5432")),
		Path:     "/" + name,
		RawQuery: "sslmode=" + EnvDefault("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// ParseDuration understands time.ParseDuration input plus a whole-day suffix ("7d").
func ParseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}
