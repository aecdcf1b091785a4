package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/app/orderstore"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port            string
	Store           orderstore.Config
	Policy          ordersdomain.Policy
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// LoadConfig reads .env (when present) and environment variables, applies
// defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	store, err := orderstore.FromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Port:            envDefault("PORT", "5000"),
		Store:           store,
		Policy:          ordersdomain.Policy{RejectAdvanceOverTotal: isTruthy(os.Getenv("REJECT_ADVANCE_OVER_TOTAL"))},
		AllowedOrigins:  splitList(envDefault("CORS_ALLOWED_ORIGINS", "*")),
		ShutdownTimeout: 10 * time.Second,
	}
	if port, err := strconv.Atoi(cfg.Port); err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("PORT must be a valid TCP port, got %q", cfg.Port)
	}
	if raw := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
