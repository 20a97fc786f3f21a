package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

// DefaultBaseURL is the public Maps web service host.
const DefaultBaseURL = "https://maps.googleapis.com"

var _ ports.Provider = (*Client)(nil)

// Client talks to the Maps geocoding, directions and distance-matrix JSON endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cl *Client) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			cl.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewClient instantiates the client with sane defaults.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("maps API key is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Geocode resolves address candidates.
func (c *Client) Geocode(ctx context.Context, address string) ([]domain.GeocodeResult, error) {
	var body geocodeResponse
	if err := c.get(ctx, "/maps/api/geocode/json", &body, param{"address", address}); err != nil {
		return nil, err
	}
	if err := statusError(body.Status, body.ErrorMessage, domain.ErrAddressNotFound); err != nil {
		return nil, err
	}
	results := make([]domain.GeocodeResult, 0, len(body.Results))
	for _, r := range body.Results {
		results = append(results, domain.GeocodeResult{
			Coordinates:      geo.Coordinates{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			FormattedAddress: r.FormattedAddress,
			PlaceID:          r.PlaceID,
		})
	}
	return results, nil
}

// ComputeRoute calls the directions endpoint for a single leg.
func (c *Client) ComputeRoute(ctx context.Context, origin, destination domain.Location, opts domain.RouteOptions) (domain.RouteLeg, error) {
	params := []param{{"origin", origin.String()}, {"destination", destination.String()}, {"mode", "driving"}}
	if opts.TrafficAware {
		params = append(params, param{"departure_time", "now"})
	}
	var body directionsResponse
	if err := c.get(ctx, "/maps/api/directions/json", &body, params...); err != nil {
		return domain.RouteLeg{}, err
	}
	if err := statusError(body.Status, body.ErrorMessage, domain.ErrRouteUnavailable); err != nil {
		return domain.RouteLeg{}, err
	}
	if len(body.Routes) == 0 || len(body.Routes[0].Legs) == 0 {
		return domain.RouteLeg{}, domain.ErrRouteUnavailable
	}
	route := body.Routes[0]
	leg := route.Legs[0].toDomain(origin, destination)
	leg.Polyline = route.OverviewPolyline.Points
	leg.Source = domain.SourceDirections
	return leg, nil
}

// EstimateLeg calls the distance-matrix endpoint for a single pair.
func (c *Client) EstimateLeg(ctx context.Context, origin, destination domain.Location, opts domain.RouteOptions) (domain.RouteLeg, error) {
	params := []param{{"origins", origin.String()}, {"destinations", destination.String()}, {"mode", "driving"}}
	if opts.TrafficAware {
		params = append(params, param{"departure_time", "now"})
	}
	var body distanceMatrixResponse
	if err := c.get(ctx, "/maps/api/distancematrix/json", &body, params...); err != nil {
		return domain.RouteLeg{}, err
	}
	if err := statusError(body.Status, body.ErrorMessage, domain.ErrRouteUnavailable); err != nil {
		return domain.RouteLeg{}, err
	}
	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return domain.RouteLeg{}, domain.ErrRouteUnavailable
	}
	element := body.Rows[0].Elements[0]
	if err := statusError(element.Status, "", domain.ErrRouteUnavailable); err != nil {
		return domain.RouteLeg{}, err
	}
	leg := element.toDomain(origin, destination)
	leg.Source = domain.SourceDistanceMatrix
	return leg, nil
}

// ComputeMultiStopRoute uses directions waypoint optimization. Without a return trip the
// last destination is kept as the fixed end and the others are reordered.
func (c *Client) ComputeMultiStopRoute(ctx context.Context, req ports.MultiStopRequest) (ports.MultiStopResult, error) {
	n := len(req.Destinations)
	if n == 0 {
		return ports.MultiStopResult{}, domain.ErrInvalidInput
	}
	end := req.Origin
	optimizable := make([]int, 0, n)
	for i := range req.Destinations {
		optimizable = append(optimizable, i)
	}
	if !req.ReturnToOrigin {
		end = req.Destinations[n-1]
		optimizable = optimizable[:n-1]
	}
	stops := make([]string, 0, len(optimizable)+1)
	stops = append(stops, "optimize:true")
	for _, idx := range optimizable {
		stops = append(stops, req.Destinations[idx].String())
	}
	params := []param{
		{"origin", req.Origin.String()},
		{"destination", end.String()},
		{"waypoints", strings.Join(stops, "|")},
		{"mode", "driving"},
	}
	if req.Options.TrafficAware {
		params = append(params, param{"departure_time", "now"})
	}
	var body directionsResponse
	if err := c.get(ctx, "/maps/api/directions/json", &body, params...); err != nil {
		return ports.MultiStopResult{}, err
	}
	if err := statusError(body.Status, body.ErrorMessage, domain.ErrRouteUnavailable); err != nil {
		return ports.MultiStopResult{}, err
	}
	if len(body.Routes) == 0 {
		return ports.MultiStopResult{}, domain.ErrRouteUnavailable
	}
	route := body.Routes[0]
	if len(route.WaypointOrder) != len(optimizable) {
		return ports.MultiStopResult{}, fmt.Errorf("%w: waypoint order has %d entries", domain.ErrRouteUnavailable, len(route.WaypointOrder))
	}

	order := make([]int, 0, n)
	for _, w := range route.WaypointOrder {
		if w < 0 || w >= len(optimizable) {
			return ports.MultiStopResult{}, fmt.Errorf("%w: waypoint index %d out of range", domain.ErrRouteUnavailable, w)
		}
		order = append(order, optimizable[w])
	}
	if !req.ReturnToOrigin {
		order = append(order, n-1)
	}
	visits := make([]domain.Location, 0, len(order)+1)
	for _, idx := range order {
		visits = append(visits, req.Destinations[idx])
	}
	if req.ReturnToOrigin {
		visits = append(visits, req.Origin)
	}
	if len(route.Legs) != len(visits) {
		return ports.MultiStopResult{}, fmt.Errorf("%w: expected %d legs, got %d", domain.ErrRouteUnavailable, len(visits), len(route.Legs))
	}
	legs := make([]domain.RouteLeg, 0, len(visits))
	from := req.Origin
	for i, to := range visits {
		leg := route.Legs[i].toDomain(from, to)
		leg.Source = domain.SourceMultiStop
		legs = append(legs, leg)
		from = to
	}
	return ports.MultiStopResult{Order: order, Legs: legs}, nil
}

type param struct {
	name  string
	value string
}

func (c *Client) get(ctx context.Context, path string, out any, params ...param) error {
	if c == nil || c.http == nil {
		return errors.New("maps client not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit: %w", domain.ErrProviderUnavailable, err)
		}
	}
	query, err := encodeQuery(append(params, param{"key", c.apiKey})...)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return fmt.Errorf("build maps request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: call maps API: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: maps API unexpected status: %s", domain.ErrProviderUnavailable, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode maps response: %w", domain.ErrProviderUnavailable, err)
	}
	return nil
}

func encodeQuery(params ...param) (string, error) {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		encoded, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", p.name, err)
		}
		parts = append(parts, encoded)
	}
	return strings.Join(parts, "&"), nil
}

func statusError(status, message string, notFound error) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return fmt.Errorf("%w: %s", notFound, status)
	default:
		if message = strings.TrimSpace(message); message != "" {
			return fmt.Errorf("%w: %s: %s", domain.ErrProviderUnavailable, status, message)
		}
		return fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, status)
	}
}
