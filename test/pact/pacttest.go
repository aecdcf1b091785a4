//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "ruchi-orders-api"
	ConsumerName = "ruchi-storefront"

	StateOrdersBaseline = "no orders are stored"
	StateOrderExists    = "order ord-pact-1 exists"
	StateOrderMissing   = "no order with id ord-missing"
)

const (
	ExistingOrderID = "ord-pact-1"
	MissingOrderID  = "ord-missing"
)

// Stable values shared by the consumer expectations and the provider seed.
const (
	ExampleCustomer   = "Asha"
	ExampleAddress    = "12 Elm St"
	ExampleOrderDate  = "2024-05-01T00:00:00.000Z"
	ExampleCreatedAt  = "2024-05-01T08:00:00.000Z"
	ExampleFlavorSize = "Vanilla/Large"
	ExampleQuantity   = 10
	ExampleCost       = 25.0
	ExampleAdvance    = 100.0
	ExampleTotal      = 250.0
	ExamplePending    = 150.0
)

// TimestampPattern matches the API's millisecond UTC timestamps.
const TimestampPattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
