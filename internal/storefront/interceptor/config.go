package interceptor

import (
	"fmt"
	"net/url"
	"strings"
)

// Defaults for the storefront deployment.
const (
	DefaultCacheName        = "ruchi-icecream-cache-v4"
	DefaultRealtimeHost     = "firestore.googleapis.com"
	DefaultOrderListPattern = "localhost:5000/get-orders"
)

// DefaultManifest lists the storefront assets precached on install.
// Changing it requires a new CacheName.
var DefaultManifest = []string{
	"/frontend/",
	"/frontend/index.html",
	"/frontend/styles.css",
	"/frontend/addOrder.html",
	"/frontend/pendingOrders.html",
	"/frontend/pendingPayment.html",
	"/frontend/orderHistory.html",
	"/frontend/firebase-config.js",
	"/frontend/pendingOrders.js",
	"/frontend/manifest.json",
	"/frontend/icons/icon-192x192.png",
	"/frontend/icons/icon-512x512.png",
	"/frontend/images/1.webp",
	"/frontend/images/2.png",
	"/frontend/images/3.webp",
	"/frontend/images/4.avif",
	"/frontend/images/5.webp",
	"/frontend/images/logo.png",
}

// Config describes one worker version.
type Config struct {
	// CacheName is the versioned precache. Every other cache is deleted on activation.
	CacheName string
	// Origin is where manifest paths are fetched from.
	Origin   *url.URL
	Manifest []string
	// RealtimeHost marks document-database traffic, served cache first.
	RealtimeHost string
	// OrderListPattern marks the backend order listing.
	OrderListPattern string
	// ShortCircuitOrderList answers the order listing with the offline body even
	// when the network is reachable.
	ShortCircuitOrderList bool
	// SkipWaiting activates the worker as soon as it is installed.
	SkipWaiting bool
	// InstallConcurrency bounds parallel precache fetches.
	InstallConcurrency int
}

// DefaultConfig returns the production settings for origin.
func DefaultConfig(origin *url.URL) Config {
	return Config{
		CacheName:             DefaultCacheName,
		Origin:                origin,
		Manifest:              append([]string(nil), DefaultManifest...),
		RealtimeHost:          DefaultRealtimeHost,
		OrderListPattern:      DefaultOrderListPattern,
		ShortCircuitOrderList: true,
		SkipWaiting:           true,
		InstallConcurrency:    4,
	}
}

// Validate checks the settings a worker cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CacheName) == "" {
		return fmt.Errorf("cache name is required")
	}
	if len(c.Manifest) > 0 && (c.Origin == nil || c.Origin.Scheme == "" || c.Origin.Host == "") {
		return fmt.Errorf("an absolute asset origin is required to precache the manifest")
	}
	return nil
}

func (c Config) manifestURL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("manifest entry %q: %w", path, err)
	}
	return c.Origin.ResolveReference(ref).String(), nil
}
