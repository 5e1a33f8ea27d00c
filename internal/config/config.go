package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	// ReconcileInterval is how often the scheduler scans for due
	// reminders; GraceWindow marks how far past due a firing is still
	// considered on time (later ones get logged as missed).
	ReconcileInterval time.Duration
	GraceWindow       time.Duration

	// NotifyPrimary selects the primary delivery channel: "log",
	// "webhook", or "off" (everything falls back to calendar artifacts).
	NotifyPrimary    string
	NotifyWebhookURL string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenv("DATABASE_URL", ""),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		ReconcileInterval:    getdur("RECONCILE_INTERVAL", 60*time.Second),
		GraceWindow:          getdur("GRACE_WINDOW", 24*time.Hour),
		NotifyPrimary:        getenv("NOTIFY_PRIMARY", "log"),
		NotifyWebhookURL:     getenv("NOTIFY_WEBHOOK_URL", ""),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")
	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getdur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
