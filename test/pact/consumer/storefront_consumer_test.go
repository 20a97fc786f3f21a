//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	pacttest "github.com/Apurer/warehouse-fulfillment/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderPayload struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

type reportPayload struct {
	State string `json:"state"`
}

type fulfillmentPayload struct {
	Order    orderPayload   `json:"order"`
	Report   *reportPayload `json:"report"`
	Replayed bool           `json:"replayed"`
}

type geocodePayload struct {
	FormattedAddress string `json:"formattedAddress"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestStorefrontContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	money := matchers.Term("39.98", `^\d+\.\d{2}$`)
	orderMatcher := matchers.StructMatcher{
		"id":        matchers.Like(pacttest.ExistingOrderID),
		"status":    matchers.Term("pending", "pending|shipped|delivered|cancelled"),
		"unitPrice": matchers.Term("19.99", `^\d+\.\d{2}$`),
		"total":     money,
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateNoOrders).
		UponReceiving("a request to place an order").
		WithRequest("POST", "/api/v1/integration/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExamplePlaceOrderPayload())
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"order": orderMatcher,
				"report": matchers.StructMatcher{
					"state": matchers.Term("completed", "completed|partially_failed"),
					"steps": matchers.EachLike(matchers.Map{
						"step":    matchers.Term("inventory", "inventory|delivery|warehouse"),
						"outcome": matchers.Term("succeeded", "succeeded|degraded|failed|skipped"),
					}, 3),
				},
				"replayed": matchers.Like(false),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to fetch an existing order").
		WithRequest("GET", "/api/v1/integration/orders/"+pacttest.ExistingOrderID).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateNoOrders).
		UponReceiving("a request for a missing order").
		WithRequest("GET", "/api/v1/integration/orders/"+pacttest.MissingOrderID).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateRoutingBaseline).
		UponReceiving("a request to geocode a known address").
		WithRequest("GET", "/api/v1/delivery-tracking/geocode", func(b *pactconsumer.V2RequestBuilder) {
			b.Query("address", matchers.S(pacttest.KnownAddress))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"formattedAddress": matchers.Like(pacttest.KnownAddress),
				"coordinates": matchers.StructMatcher{
					"lat": matchers.Like(36.332),
					"lng": matchers.Like(-94.1185),
				},
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newStorefrontClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		placed, err := client.PlaceOrder(ctx, pacttest.ExamplePlaceOrderPayload())
		if err != nil {
			return fmt.Errorf("place order: %w", err)
		}
		if placed.Order.ID == "" || placed.Report == nil {
			return fmt.Errorf("expected order id and report, got %+v", placed)
		}

		order, err := client.GetOrder(ctx, pacttest.ExistingOrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if order.ID != pacttest.ExistingOrderID {
			return fmt.Errorf("expected order %s, got %+v", pacttest.ExistingOrderID, order)
		}

		if _, err := client.GetOrder(ctx, pacttest.MissingOrderID); err == nil {
			return fmt.Errorf("expected 404 for order %s", pacttest.MissingOrderID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.Status())
		}

		geocoded, err := client.Geocode(ctx, pacttest.KnownAddress)
		if err != nil {
			return fmt.Errorf("geocode: %w", err)
		}
		if geocoded.FormattedAddress == "" {
			return fmt.Errorf("expected a formatted address")
		}
		return nil
	})
	require.NoError(t, err)
}

type storefrontClient struct {
	baseURL    string
	httpClient *http.Client
}

func newStorefrontClient(config pactconsumer.MockServerConfig) *storefrontClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &storefrontClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *storefrontClient) PlaceOrder(ctx context.Context, payload map[string]any) (*fulfillmentPayload, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/integration/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out fulfillmentPayload
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *storefrontClient) GetOrder(ctx context.Context, id string) (*orderPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/integration/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var out orderPayload
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *storefrontClient) Geocode(ctx context.Context, address string) (*geocodePayload, error) {
	query := url.Values{"address": []string{address}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/delivery-tracking/geocode?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out geocodePayload
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *storefrontClient) do(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{
		status: status,
		title:  problem.Title,
		detail: problem.Detail,
	}
}
