package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:              "development",
		Port:             "3000",
		JWTSecret:        "secure-secret-at-least-32-chars-long",
		SessionTTLHrs:    24,
		DBDriver:         DriverPostgres,
		DBPassword:       "secure-password",
		ImageStore:       ImageStoreLocal,
		ImageDir:         "./images",
		ImageMaxUploadMB: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"defaults are valid", func(_ *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"non-positive session ttl", func(c *Config) { c.SessionTTLHrs = 0 }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"sqlite without path", func(c *Config) { c.DBDriver = DriverSQLite }, true},
		{"sqlite with path", func(c *Config) { c.DBDriver = DriverSQLite; c.SQLitePath = "x.db" }, false},
		{"mongo without url", func(c *Config) { c.DBDriver = DriverMongo; c.MongoDB = "photoshare" }, true},
		{"mongo configured", func(c *Config) {
			c.DBDriver = DriverMongo
			c.MongoURL = "mongodb://localhost:27017"
			c.MongoDB = "photoshare"
		}, false},
		{"s3 without bucket", func(c *Config) { c.ImageStore = ImageStoreS3 }, true},
		{"s3 with bucket", func(c *Config) { c.ImageStore = ImageStoreS3; c.S3Bucket = "photos" }, false},
		{"unknown image store", func(c *Config) { c.ImageStore = "ftp" }, true},
		{"production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"production weak db password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"production mongo ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = ""
			c.DBDriver = DriverMongo
			c.MongoURL = "mongodb://db:27017"
			c.MongoDB = "photoshare"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("IMAGE_STORE", "LOCAL")
	t.Setenv("PORT", "4000")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, ImageStoreLocal, c.ImageStore)
	assert.Equal(t, "4000", c.Port)
	assert.Equal(t, 24, c.SessionTTLHrs)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes())
}

func TestPostgresDSN(t *testing.T) {
	c := validConfig()
	c.DBHost, c.DBPort, c.DBUser, c.DBName = "db", "5433", "app", "photos"
	c.DBSSLMode = ""

	assert.Equal(t, "host=db port=5433 user=app password=secure-password dbname=photos sslmode=disable", c.PostgresDSN())
}
