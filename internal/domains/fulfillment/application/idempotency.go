package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
)

type normalizedPlaceOrderInput struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	ProductRef      string `json:"productRef"`
	ProductName     string `json:"productName"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unitPrice"`
	DeliveryAddress string `json:"deliveryAddress"`
	PaymentMethod   string `json:"paymentMethod"`
	Priority        string `json:"priority"`
}

// orderNamespace scopes order identifiers derived from idempotency keys.
var orderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:warehouse-fulfillment:orders"))

// FingerprintPlaceOrder builds a deterministic hash of the place-order payload (excluding the idempotency key).
func FingerprintPlaceOrder(input fulfillmenttypes.PlaceOrderInput) (string, error) {
	payload, err := json.Marshal(normalizePlaceOrderInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizePlaceOrderInput(input fulfillmenttypes.PlaceOrderInput) normalizedPlaceOrderInput {
	return normalizedPlaceOrderInput{
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		ProductRef:      strings.TrimSpace(input.ProductRef),
		ProductName:     strings.TrimSpace(input.ProductName),
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice.StringFixed(4),
		DeliveryAddress: strings.Join(strings.Fields(input.DeliveryAddress), " "),
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		Priority:        strings.ToLower(strings.TrimSpace(input.Priority)),
	}
}

// orderIDForKey derives a stable order identifier from an idempotency key so concurrent
// retries collide on the order store instead of creating twins.
func orderIDForKey(key string) string {
	return uuid.NewSHA1(orderNamespace, []byte(key)).String()
}
