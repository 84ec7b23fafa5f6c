// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Image stores accepted by IMAGE_STORE.
const (
	ImageStoreLocal = "local"
	ImageStoreS3    = "s3"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	SessionTTLHrs  int    `mapstructure:"SESSION_TTL_HOURS"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	RedisURL       string `mapstructure:"REDIS_URL"`

	DBDriver     string `mapstructure:"DB_DRIVER"`
	DBHost       string `mapstructure:"DB_HOST"`
	DBPort       string `mapstructure:"DB_PORT"`
	DBUser       string `mapstructure:"DB_USER"`
	DBPassword   string `mapstructure:"DB_PASSWORD"`
	DBName       string `mapstructure:"DB_NAME"`
	DBSSLMode    string `mapstructure:"DB_SSLMODE"`
	DBSchemaMode string `mapstructure:"DB_SCHEMA_MODE"`
	SQLitePath   string `mapstructure:"SQLITE_PATH"`
	MongoURL     string `mapstructure:"MONGO_URL"`
	MongoDB      string `mapstructure:"MONGO_DB"`

	ImageStore       string `mapstructure:"IMAGE_STORE"`
	ImageDir         string `mapstructure:"IMAGE_DIR"`
	ImageMaxUploadMB int    `mapstructure:"IMAGE_MAX_UPLOAD_MB"`
	S3Bucket         string `mapstructure:"S3_BUCKET"`
	S3Region         string `mapstructure:"S3_REGION"`
	S3Endpoint       string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey      string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey      string `mapstructure:"S3_SECRET_KEY"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base config file is optional
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("REDIS_URL", "localhost:6379")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "photoshare")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SCHEMA_MODE", "hybrid")
	v.SetDefault("SQLITE_PATH", "photoshare.db")
	v.SetDefault("MONGO_URL", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "photoshare")

	v.SetDefault("IMAGE_STORE", ImageStoreLocal)
	v.SetDefault("IMAGE_DIR", "./images")
	v.SetDefault("IMAGE_MAX_UPLOAD_MB", 10)
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.ImageStore = strings.ToLower(strings.TrimSpace(c.ImageStore))
}

// IsProduction reports whether the strict production checks apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTTLHrs <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}

	switch c.DBDriver {
	case DriverPostgres:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	case DriverMongo:
		if c.MongoURL == "" || c.MongoDB == "" {
			return errors.New("MONGO_URL and MONGO_DB are required when DB_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.ImageStore {
	case ImageStoreLocal:
		if c.ImageDir == "" {
			return errors.New("IMAGE_DIR is required when IMAGE_STORE=local")
		}
	case ImageStoreS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_STORE %q", c.ImageStore)
	}
	if c.ImageMaxUploadMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_MB must be positive")
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == DriverPostgres && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == DriverSQLite {
			log.Println("WARNING: DB_DRIVER is 'sqlite' in production. It is intended for development and tests.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// PostgresDSN builds the libpq style connection string for DB_DRIVER=postgres.
func (c *Config) PostgresDSN() string {
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode,
	)
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.ImageMaxUploadMB) << 20
}
