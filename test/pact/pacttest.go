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
	ProviderName = "fulfillment-api"
	ConsumerName = "storefront"

	StateNoOrders        = "no orders exist"
	StateOrderExists     = "order order-pact-1 exists"
	StateRoutingBaseline = "routing knows Rogers Store"
)

const (
	ExistingOrderID = "order-pact-1"
	MissingOrderID  = "order-missing"
	KnownAddress    = "Rogers Store"
)

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

// ExamplePlaceOrderPayload provides stable test data for place-order interactions.
func ExamplePlaceOrderPayload() map[string]any {
	return map[string]any{
		"customerName":    "Pact Customer",
		"customerEmail":   "pact.customer@example.com",
		"productRef":      "SKU-PACT",
		"productName":     "Pact Widget",
		"quantity":        2,
		"unitPrice":       "19.99",
		"deliveryAddress": KnownAddress,
	}
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
