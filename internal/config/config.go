// Package config loads the application settings from defaults, an optional YAML file
// and ANCHOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/UnknownOlympus/anchor/internal/placement"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix     = "ANCHOR"
	configFileEnv = "ANCHOR_CONFIG_FILE"
)

// Provider types accepted in provider.type. ProviderStatic disables geocoding.
const (
	ProviderGoogle    = "google"
	ProviderNominatim = "nominatim"
	ProviderStatic    = "static"
)

// Config holds the configuration settings for the anchor placement service.
type Config struct {
	Env        string          `mapstructure:"env"`         // Env is the current environment: local, development, production.
	HealthPort int             `mapstructure:"health_port"` // HealthPort is the monitoring server port.
	Workers    int             `mapstructure:"workers"`     // Workers resolving reference point addresses.
	Provider   ProviderConfig  `mapstructure:"provider"`
	Anchor     AnchorConfig    `mapstructure:"anchor"`
	Model      ModelConfig     `mapstructure:"model"`
	Placement  PlacementConfig `mapstructure:"placement"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Database   PostgresConfig  `mapstructure:"database"`
}

// ProviderConfig selects the geocoding provider for reference point addresses.
type ProviderConfig struct {
	Type      string `mapstructure:"type"`
	APIKey    string `mapstructure:"api_key"`
	RateLimit int    `mapstructure:"rate_limit"` // Requests per second across all workers.
	BaseURL   string `mapstructure:"base_url"`   // Nominatim endpoint override.
	UserAgent string `mapstructure:"user_agent"` // Nominatim User-Agent override.
}

// AnchorConfig describes the anchor and where its reference points come from.
type AnchorConfig struct {
	Name            string `mapstructure:"name"`
	ReferencePoints string `mapstructure:"reference_points"` // "lat,lon;lat,lon", used without a database.
	Cache           bool   `mapstructure:"cache"`
}

// ModelConfig stands in for the loaded 3D asset.
type ModelConfig struct {
	Name       string  `mapstructure:"name"`
	BoundsMinY float64 `mapstructure:"bounds_min_y"`
	BoundsMaxY float64 `mapstructure:"bounds_max_y"`
}

// PlacementConfig holds the asset-specific calibration.
type PlacementConfig struct {
	HeadingOffsetDeg float64       `mapstructure:"heading_offset_deg"`
	AxisSign         float64       `mapstructure:"axis_sign"`
	MinScale         float64       `mapstructure:"min_scale"`
	MaxScale         float64       `mapstructure:"max_scale"`
	ScaleNumerator   float64       `mapstructure:"scale_numerator"`
	Animation        time.Duration `mapstructure:"animation"`
}

// NATSConfig points at the broker carrying location events and render commands.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("health_port", 8080)
	v.SetDefault("workers", 4)

	v.SetDefault("provider.type", ProviderStatic)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.rate_limit", 1)
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.user_agent", "")

	v.SetDefault("anchor.name", "shipMesh")
	v.SetDefault("anchor.reference_points", "14.687758,120.955859;14.686450,120.956937")
	v.SetDefault("anchor.cache", false)

	v.SetDefault("model.name", "shipMesh")
	v.SetDefault("model.bounds_min_y", 0.0)
	v.SetDefault("model.bounds_max_y", 0.0)

	calibration := placement.DefaultCalibration()
	v.SetDefault("placement.heading_offset_deg", calibration.HeadingOffset)
	v.SetDefault("placement.axis_sign", calibration.AxisSign)
	v.SetDefault("placement.min_scale", calibration.MinScale)
	v.SetDefault("placement.max_scale", calibration.MaxScale)
	v.SetDefault("placement.scale_numerator", calibration.ScaleNumerator)
	v.SetDefault("placement.animation", calibration.Animation)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "anchor")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "anchor")
}

// Load reads an optional .env file, the YAML file named by ANCHOR_CONFIG_FILE (or
// ./config.yaml when present) and ANCHOR_* environment variables, in increasing priority.
// ANCHOR_DATABASE_HOST maps to database.host.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path, ok := os.LookupEnv(configFileEnv); ok && path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("health_port must be 1-65535, got %d", c.HealthPort))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}

	switch c.Provider.Type {
	case ProviderGoogle:
		if c.Provider.APIKey == "" {
			errs = append(errs, "provider.api_key is required for the google provider")
		}
	case ProviderNominatim, ProviderStatic:
	default:
		errs = append(errs, fmt.Sprintf("provider.type must be google, nominatim or static, got %q", c.Provider.Type))
	}
	if c.Provider.RateLimit < 0 {
		errs = append(errs, "provider.rate_limit must not be negative")
	}

	if c.Anchor.Name == "" {
		errs = append(errs, "anchor.name is required")
	}
	if !c.Database.Enabled {
		if _, err := ParseReferencePoints(c.Anchor.ReferencePoints); err != nil {
			errs = append(errs, "anchor.reference_points: "+err.Error())
		}
	}

	if c.Model.BoundsMaxY < c.Model.BoundsMinY {
		errs = append(errs, "model.bounds_max_y must not be below model.bounds_min_y")
	}
	if err := c.Calibration().Validate(); err != nil {
		errs = append(errs, "placement: "+err.Error())
	}

	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.NATS.SubjectPrefix == "" {
		errs = append(errs, "nats.subject_prefix is required")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Calibration converts the placement section.
func (c *Config) Calibration() placement.Calibration {
	return placement.Calibration{
		HeadingOffset:  c.Placement.HeadingOffsetDeg,
		AxisSign:       c.Placement.AxisSign,
		ScaleNumerator: c.Placement.ScaleNumerator,
		MinScale:       c.Placement.MinScale,
		MaxScale:       c.Placement.MaxScale,
		Animation:      c.Placement.Animation,
	}
}

// PlacementModel builds the model description with an identity base transform.
func (c *Config) PlacementModel() placement.Model {
	return placement.Model{
		Name:      c.Model.Name,
		Transform: mgl64.Ident4(),
		BoundsMin: mgl64.Vec3{0, c.Model.BoundsMinY, 0},
		BoundsMax: mgl64.Vec3{0, c.Model.BoundsMaxY, 0},
	}
}

// ReferencePoints parses anchor.reference_points.
func (c *Config) ReferencePoints() ([]models.GeoPoint, error) {
	return ParseReferencePoints(c.Anchor.ReferencePoints)
}

// ParseReferencePoints parses "lat,lon;lat,lon". Blank entries are skipped; at least one
// point is required.
func ParseReferencePoints(raw string) ([]models.GeoPoint, error) {
	var points []models.GeoPoint

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		lat, lon, found := strings.Cut(entry, ",")
		if !found {
			return nil, fmt.Errorf("point %q: expected \"lat,lon\"", entry)
		}

		point, err := parsePoint(lat, lon)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", entry, err)
		}
		points = append(points, point)
	}

	if len(points) == 0 {
		return nil, errors.New("at least one reference point is required")
	}

	return points, nil
}

func parsePoint(rawLat, rawLon string) (models.GeoPoint, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rawLon), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid longitude: %w", err)
	}

	point := models.GeoPoint{Latitude: lat, Longitude: lon}
	if !point.Valid() {
		return models.GeoPoint{}, fmt.Errorf("coordinates out of range: %s", point)
	}

	return point, nil
}
