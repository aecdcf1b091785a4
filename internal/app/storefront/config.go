package storefront

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Apurer/ruchi-orders/internal/app/orderstore"
	"github.com/Apurer/ruchi-orders/internal/storefront/interceptor"
	"github.com/Apurer/ruchi-orders/internal/storefront/localdb"
	"github.com/Apurer/ruchi-orders/internal/storefront/offlinecache"
)

// Config carries environment-driven settings for the storefront client.
type Config struct {
	BackendURL     string
	RequestTimeout time.Duration

	DataDir      string
	DatabaseName string
	PendingTable string

	// AssetOrigin serves the precached storefront assets. When empty nothing is precached.
	AssetOrigin           string
	CacheName             string
	RealtimeHost          string
	OrderListPattern      string
	ShortCircuitOrderList bool
	SkipWaiting           bool

	ListenAddr string
	Store      orderstore.Config
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
		BackendURL:            strings.TrimRight(envDefault("BACKEND_URL", "http://localhost:5000"), "/"),
		RequestTimeout:        10 * time.Second,
		DataDir:               envDefault("OFFLINE_DATA_DIR", defaultDataDir()),
		DatabaseName:          envDefault("OFFLINE_DB_NAME", localdb.DefaultName),
		PendingTable:          envDefault("OFFLINE_TABLE", offlinecache.DefaultTable),
		AssetOrigin:           strings.TrimSpace(os.Getenv("ASSET_ORIGIN")),
		CacheName:             envDefault("ASSET_CACHE_NAME", interceptor.DefaultCacheName),
		RealtimeHost:          envDefault("REALTIME_HOST", interceptor.DefaultRealtimeHost),
		OrderListPattern:      strings.TrimSpace(os.Getenv("ORDER_LIST_PATTERN")),
		ShortCircuitOrderList: boolDefault("SHORT_CIRCUIT_ORDER_LIST", true),
		SkipWaiting:           boolDefault("SKIP_WAITING", true),
		ListenAddr:            envDefault("STOREFRONT_ADDR", ":8080"),
		Store:                 store,
	}

	backendURL, err := url.Parse(cfg.BackendURL)
	if err != nil || backendURL.Scheme == "" || backendURL.Host == "" {
		return Config{}, fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", cfg.BackendURL)
	}
	if cfg.OrderListPattern == "" {
		cfg.OrderListPattern = backendURL.Host + "/get-orders"
	}
	if cfg.AssetOrigin != "" {
		origin, err := url.Parse(cfg.AssetOrigin)
		if err != nil || origin.Scheme == "" || origin.Host == "" {
			return Config{}, fmt.Errorf("ASSET_ORIGIN must be an absolute URL, got %q", cfg.AssetOrigin)
		}
	}
	if raw := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}
	return cfg, nil
}

// DatabasePath is the SQLite file shared by the offline cache and the asset caches.
func (c Config) DatabasePath() string {
	return localdb.Path(c.DataDir, c.DatabaseName)
}

// InterceptorConfig builds the worker settings.
func (c Config) InterceptorConfig() interceptor.Config {
	var origin *url.URL
	if c.AssetOrigin != "" {
		origin, _ = url.Parse(c.AssetOrigin)
	}
	cfg := interceptor.DefaultConfig(origin)
	cfg.CacheName = c.CacheName
	cfg.RealtimeHost = c.RealtimeHost
	cfg.OrderListPattern = c.OrderListPattern
	cfg.ShortCircuitOrderList = c.ShortCircuitOrderList
	cfg.SkipWaiting = c.SkipWaiting
	if origin == nil {
		cfg.Manifest = nil
	}
	return cfg
}

func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "ruchi-storefront")
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func boolDefault(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}
