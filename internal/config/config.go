package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environments recognised by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int            `yaml:"port" validate:"min=1,max=65535"`
	Environment  string         `yaml:"environment" validate:"oneof=development production test"`
	DatabasePath string         `yaml:"database_path" validate:"required"`
	LogLevel     string         `yaml:"log_level" validate:"oneof=debug info warn error"`
	CORSOrigins  []string       `yaml:"cors_origins"`
	Auth         AuthConfig     `yaml:"auth"`
	Activity     ActivityConfig `yaml:"activity"`
	Kafka        KafkaConfig    `yaml:"kafka"`
}

// AuthConfig configures token issuance and password hashing.
type AuthConfig struct {
	JWTSecret               string        `yaml:"jwt_secret" validate:"required,min=16"`
	TokenTTL                time.Duration `yaml:"token_ttl" validate:"gt=0"`
	CookieName              string        `yaml:"cookie_name" validate:"required"`
	BcryptCost              int           `yaml:"bcrypt_cost" validate:"min=10,max=31"`
	AllowRoleSelfAssignment bool          `yaml:"allow_role_self_assignment"`
}

// ActivityConfig configures retention of the activity log.
type ActivityConfig struct {
	Retention         time.Duration `yaml:"retention" validate:"gt=0"`
	RetentionSchedule string        `yaml:"retention_schedule" validate:"required"`
}

// KafkaConfig enables publishing activity events. Leaving Brokers empty disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic" validate:"required_with=Brokers"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool { return c.Environment == EnvDevelopment }

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		ServerPort:   3000,
		Environment:  EnvDevelopment,
		DatabasePath: "./catalog.db",
		LogLevel:     "info",
		CORSOrigins:  []string{"http://localhost:3000"},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			CookieName: "token",
			BcryptCost: 10,
		},
		Activity: ActivityConfig{
			Retention:         90 * 24 * time.Hour,
			RetentionSchedule: "@daily",
		},
		Kafka: KafkaConfig{
			Topic: "catalog.activity.v1",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if any), then
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.ServerPort = port
	}
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.CookieName = getEnv("COOKIE_NAME", c.Auth.CookieName)
	if v, ok := os.LookupEnv("TOKEN_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = ttl
	}
	if v, ok := os.LookupEnv("BCRYPT_COST"); ok {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		c.Auth.BcryptCost = cost
	}
	if v, ok := os.LookupEnv("ALLOW_ROLE_SELF_ASSIGNMENT"); ok {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ALLOW_ROLE_SELF_ASSIGNMENT: %w", err)
		}
		c.Auth.AllowRoleSelfAssignment = allow
	}

	if v, ok := os.LookupEnv("ACTIVITY_RETENTION"); ok {
		retention, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ACTIVITY_RETENTION: %w", err)
		}
		c.Activity.Retention = retention
	}
	c.Activity.RetentionSchedule = getEnv("RETENTION_SCHEDULE", c.Activity.RetentionSchedule)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
