package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/joho/godotenv"
)

// Config holds the configuration settings of the location capture host.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port of the HTTP server (webhook, health checks and metrics).
// - ProviderType: The type of geocoding provider to use (google, nominatim, visicom).
// - APIKey: The API key the dialogs pass to the geocoding provider.
// - RateLimit: Requests per second allowed towards the provider.
// - CacheSize: Number of geocoding answers kept in memory.
// - SessionTTL: Idle time after which a suspended dialog expires.
// - JanitorInterval: How often expired sessions are purged.
// - ResourcesFile: Optional file overriding the user-facing texts.
// - Dialog: Options of every new location dialog.
// - Database: Configuration settings for the PostgreSQL database; sessions stay in memory when Host is empty.
// - Kafka: Publishing of captured locations.
type Config struct {
	Env             string         `yaml:"env"`                       // Env is the current environment: local, dev, prod.
	Port            int            `yaml:"waypoint.port"`             // Port is the HTTP server port.
	ProviderType    string         `yaml:"provider.type"`             // ProviderType specifies which geocoding provider to use
	APIKey          string         `yaml:"provider.api_key"`          // The API key for accessing external services.
	RateLimit       int            `yaml:"provider.rate_limit"`       // Requests per second towards the provider.
	CacheSize       int            `yaml:"provider.cache_size"`       // Number of cached geocoding answers.
	SessionTTL      time.Duration  `yaml:"waypoint.session_ttl"`      // Idle time after which a dialog expires.
	JanitorInterval time.Duration  `yaml:"waypoint.janitor_interval"` // Interval between expired session sweeps.
	ResourcesFile   string         `yaml:"waypoint.resources"`        // Optional override of the dialog texts.
	Dialog          DialogConfig   `yaml:"dialog"`                    // Dialog holds the options of new dialogs
	Database        PostgresConfig `yaml:"postgres"`                  // Database holds the postgres database configuration
	Kafka           KafkaConfig    `yaml:"kafka"`                     // Kafka holds the event publishing configuration
}

// DialogConfig holds the options every new location dialog starts with.
type DialogConfig struct {
	Prompt           string                `yaml:"prompt"`
	UseNativeControl bool                  `yaml:"native_control"`
	ReverseGeocode   bool                  `yaml:"reverse_geocode"`
	RequiredFields   models.RequiredFields `yaml:"required_fields"`
	DirectionsFrom   string                `yaml:"directions_from"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`                        // Host is the database server address.
	Port     string `yaml:"port"     env-default:"5432"` // Port is the database server port.
	User     string `yaml:"user"`                        // User is the database user.
	Password string `yaml:"password"`                    // Password is the database user's password.
	Name     string `yaml:"db_name"`                     // Name is the name of the database.
}

// KafkaConfig holds the brokers and topic captured locations are published to.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MustLoad loads the configuration from the environment and an optional .env file and returns a Config struct.
func MustLoad() *Config {
	_ = godotenv.Load()

	port, err := strconv.Atoi(setDeafultEnv("WAYPOINT_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for HTTP server from configuration")
	}

	rateLimit, err := strconv.Atoi(setDeafultEnv("WAYPOINT_PROVIDER_RATE_LIMIT", "10"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer types")
	}

	cacheSize, err := strconv.Atoi(setDeafultEnv("WAYPOINT_CACHE_SIZE", "1000"))
	if err != nil {
		panic("failed to parse cache size from configuration, must be an integer types")
	}

	sessionTTL, err := time.ParseDuration(setDeafultEnv("WAYPOINT_SESSION_TTL", "30m"))
	if err != nil {
		panic("failed to parse session ttl from configuration")
	}

	janitorInterval, err := time.ParseDuration(setDeafultEnv("WAYPOINT_JANITOR_INTERVAL", "1m"))
	if err != nil {
		panic("failed to parse janitor interval from configuration")
	}

	nativeControl, err := strconv.ParseBool(setDeafultEnv("WAYPOINT_NATIVE_CONTROL", "false"))
	if err != nil {
		panic("failed to parse native control flag from configuration, must be a boolean")
	}

	reverseGeocode, err := strconv.ParseBool(setDeafultEnv("WAYPOINT_REVERSE_GEOCODE", "false"))
	if err != nil {
		panic("failed to parse reverse geocode flag from configuration, must be a boolean")
	}

	required, unknown := models.ParseRequiredFields(setDeafultEnv("WAYPOINT_REQUIRED_FIELDS", ""))
	if len(unknown) > 0 {
		panic("failed to parse required fields from configuration, unknown field names")
	}

	kafkaEnabled, err := strconv.ParseBool(setDeafultEnv("KAFKA_ENABLED", "false"))
	if err != nil {
		panic("failed to parse kafka flag from configuration, must be a boolean")
	}

	return &Config{
		Env:             setDeafultEnv("WAYPOINT_ENV", "production"),
		Port:            port,
		ProviderType:    setDeafultEnv("WAYPOINT_PROVIDER_TYPE", "nominatim"),
		APIKey:          os.Getenv("WAYPOINT_PROVIDER_KEY"),
		RateLimit:       rateLimit,
		CacheSize:       cacheSize,
		SessionTTL:      sessionTTL,
		JanitorInterval: janitorInterval,
		ResourcesFile:   os.Getenv("WAYPOINT_RESOURCES_FILE"),
		Dialog: DialogConfig{
			Prompt:           setDeafultEnv("WAYPOINT_PROMPT", "Where should we send your order?"),
			UseNativeControl: nativeControl,
			ReverseGeocode:   reverseGeocode,
			RequiredFields:   required,
			DirectionsFrom:   os.Getenv("WAYPOINT_DIRECTIONS_FROM"),
		},
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     setDeafultEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		Kafka: KafkaConfig{
			Enabled: kafkaEnabled,
			Brokers: splitList(setDeafultEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   setDeafultEnv("KAFKA_TOPIC", "location.captured"),
		},
	}
}

func setDeafultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
