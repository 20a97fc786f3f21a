package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

// DefaultWarehouseAddress is the distribution center deliveries leave from.
const DefaultWarehouseAddress = "Walmart Distribution Center, 508 SW 8th St, Bentonville, AR 72716"

var (
	ErrInvalidInput        = errors.New("invalid routing input")
	ErrAddressNotFound     = errors.New("address not found")
	ErrRouteUnavailable    = errors.New("route unavailable")
	ErrOptimizationFailed  = errors.New("route optimization failed")
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrWaypointOptimizationUnsupported is returned by providers that cannot reorder stops.
	ErrWaypointOptimizationUnsupported = errors.New("waypoint optimization unsupported")
)

// Location is either a coordinate pair or a free-text address. Coordinates win when both are set.
type Location struct {
	Address     string           `json:"address,omitempty"`
	Coordinates *geo.Coordinates `json:"coordinates,omitempty"`
}

// AddressLocation builds a Location from text, recognising "lat,lng" input.
func AddressLocation(address string) Location {
	address = strings.TrimSpace(address)
	if c, ok := geo.ParseCoordinates(address); ok {
		return Location{Coordinates: &c}
	}
	return Location{Address: address}
}

// PointLocation builds a Location from coordinates.
func PointLocation(c geo.Coordinates) Location {
	return Location{Coordinates: &c}
}

// IsZero reports whether the location carries neither an address nor coordinates.
func (l Location) IsZero() bool {
	return l.Coordinates == nil && strings.TrimSpace(l.Address) == ""
}

// String renders the location in provider query form.
func (l Location) String() string {
	if l.Coordinates != nil {
		return l.Coordinates.String()
	}
	return strings.TrimSpace(l.Address)
}

// GeocodeResult is a resolved address.
type GeocodeResult struct {
	Coordinates      geo.Coordinates
	FormattedAddress string
	PlaceID          string
}

// TrafficCondition tags how congested a leg is expected to be.
type TrafficCondition string

const (
	TrafficUnknown  TrafficCondition = "unknown"
	TrafficLight    TrafficCondition = "light"
	TrafficModerate TrafficCondition = "moderate"
	TrafficHeavy    TrafficCondition = "heavy"
)

// ClassifyTraffic compares a traffic-aware duration against the free-flow duration.
func ClassifyTraffic(freeFlowSeconds, trafficSeconds int) TrafficCondition {
	if freeFlowSeconds <= 0 || trafficSeconds <= 0 {
		return TrafficUnknown
	}
	ratio := float64(trafficSeconds) / float64(freeFlowSeconds)
	switch {
	case ratio < 1.1:
		return TrafficLight
	case ratio < 1.3:
		return TrafficModerate
	default:
		return TrafficHeavy
	}
}

// LegSource names which provider call produced a leg.
type LegSource string

const (
	SourceDirections     LegSource = "directions"
	SourceDistanceMatrix LegSource = "distance_matrix"
	SourceMultiStop      LegSource = "multi_stop"
)

// RouteOptions tunes routing calls.
type RouteOptions struct {
	TrafficAware bool
}

// RouteLeg is a single origin to destination segment. Both the primary and the fallback
// provider path produce this same shape.
type RouteLeg struct {
	Origin           Location
	Destination      Location
	DistanceMeters   int
	DistanceText     string
	DurationSeconds  int
	DurationText     string
	ETA              time.Time
	TrafficCondition TrafficCondition
	Polyline         string
	Source           LegSource
}

// Normalize fills display text and traffic defaults.
func (l *RouteLeg) Normalize() {
	if l.DistanceText == "" {
		l.DistanceText = FormatDistance(l.DistanceMeters)
	}
	if l.DurationText == "" {
		l.DurationText = FormatDuration(l.DurationSeconds)
	}
	if l.TrafficCondition == "" {
		l.TrafficCondition = TrafficUnknown
	}
}

// Strategy records how a multi-stop order was chosen.
type Strategy string

const (
	StrategySingle          Strategy = "single"
	StrategyProvider        Strategy = "provider"
	StrategyNearestNeighbor Strategy = "nearest_neighbor"
)

// Waypoint is a stop annotated with its visit position.
type Waypoint struct {
	Location                  Location
	Sequence                  int
	OriginalIndex             int
	Leg                       RouteLeg
	CumulativeDistanceMeters  int
	CumulativeDurationSeconds int
}

// OptimizedRoute is the planned visiting order with totals.
type OptimizedRoute struct {
	Origin               Location
	Waypoints            []Waypoint
	ReturnLeg            *RouteLeg
	TotalDistanceMeters  int
	TotalDurationSeconds int
	TotalDistanceText    string
	TotalDurationText    string
	Strategy             Strategy
	MapsLink             string
	ETA                  time.Time
}

// FormatDistance renders meters as "850 m" or "9.3 km".
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

// FormatDuration renders seconds as "1 min", "14 mins", "1 hour 5 mins" or "2 days 3 hours".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(math.Round(float64(seconds) / 60))
	if minutes < 1 {
		minutes = 1
	}
	days, rem := minutes/(24*60), minutes%(24*60)
	hours, mins := rem/60, rem%60
	switch {
	case days > 0:
		return joinUnits(unit(days, "day"), unit(hours, "hour"))
	case hours > 0:
		return joinUnits(unit(hours, "hour"), unit(mins, "min"))
	default:
		return unit(mins, "min")
	}
}

func unit(n int, name string) string {
	if n == 0 {
		return ""
	}
	if n == 1 {
		return fmt.Sprintf("1 %s", name)
	}
	return fmt.Sprintf("%d %ss", n, name)
}

func joinUnits(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
