package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/messaging/natspub"
	fulfillmentdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/adapters/external/googlemaps"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	MapsAPIKey       string
	MapsBaseURL      string
	MapsRatePerSec   float64
	WarehouseOrigin  string
	AssignmentPolicy string
	AssignmentSeed   int64

	NATSURL           string
	NATSSubjectPrefix string
}

// LoadConfig reads an optional env file, then environment variables, applies defaults,
// and validates basic constraints. An empty envFile skips the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		MapsAPIKey:        strings.TrimSpace(os.Getenv("MAPS_API_KEY")),
		MapsBaseURL:       envDefault("MAPS_BASE_URL", googlemaps.DefaultBaseURL),
		MapsRatePerSec:    10,
		WarehouseOrigin:   envDefault("WAREHOUSE_ORIGIN", routingdomain.DefaultWarehouseAddress),
		AssignmentPolicy:  envDefault("ASSIGNMENT_STRATEGY", fulfillmentdomain.StrategyRoundRobin),
		NATSURL:           strings.TrimSpace(os.Getenv("NATS_URL")),
		NATSSubjectPrefix: envDefault("NATS_SUBJECT_PREFIX", natspub.DefaultSubjectPrefix),
	}
	if _, err := fulfillmentdomain.NewAssignmentPolicy(cfg.AssignmentPolicy, 0); err != nil {
		return Config{}, fmt.Errorf("ASSIGNMENT_STRATEGY: %w", err)
	}
	if raw := strings.TrimSpace(os.Getenv("ASSIGNMENT_SEED")); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ASSIGNMENT_SEED must be an integer")
		}
		cfg.AssignmentSeed = seed
	}
	if raw := strings.TrimSpace(os.Getenv("MAPS_RATE_PER_SECOND")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return Config{}, fmt.Errorf("MAPS_RATE_PER_SECOND must be a positive number")
		}
		cfg.MapsRatePerSec = rps
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("PORT must be numeric")
	}
	return cfg, nil
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
