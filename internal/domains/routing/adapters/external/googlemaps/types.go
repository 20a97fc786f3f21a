package googlemaps

import "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		Geometry         struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type directionsLeg struct {
	Distance          textValue  `json:"distance"`
	Duration          textValue  `json:"duration"`
	DurationInTraffic *textValue `json:"duration_in_traffic,omitempty"`
}

func (l directionsLeg) toDomain(origin, destination domain.Location) domain.RouteLeg {
	return buildLeg(origin, destination, l.Distance, l.Duration, l.DurationInTraffic)
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		WaypointOrder []int           `json:"waypoint_order"`
		Legs          []directionsLeg `json:"legs"`
	} `json:"routes"`
}

type matrixElement struct {
	Status            string     `json:"status"`
	Distance          textValue  `json:"distance"`
	Duration          textValue  `json:"duration"`
	DurationInTraffic *textValue `json:"duration_in_traffic,omitempty"`
}

func (e matrixElement) toDomain(origin, destination domain.Location) domain.RouteLeg {
	return buildLeg(origin, destination, e.Distance, e.Duration, e.DurationInTraffic)
}

type distanceMatrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []matrixElement `json:"elements"`
	} `json:"rows"`
}

func buildLeg(origin, destination domain.Location, distance, duration textValue, traffic *textValue) domain.RouteLeg {
	leg := domain.RouteLeg{
		Origin:           origin,
		Destination:      destination,
		DistanceMeters:   distance.Value,
		DistanceText:     distance.Text,
		DurationSeconds:  duration.Value,
		DurationText:     duration.Text,
		TrafficCondition: domain.TrafficUnknown,
	}
	if traffic != nil && traffic.Value > 0 {
		leg.TrafficCondition = domain.ClassifyTraffic(duration.Value, traffic.Value)
		leg.DurationSeconds = traffic.Value
		leg.DurationText = traffic.Text
	}
	return leg
}
