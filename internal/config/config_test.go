package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "HTTP_PORT", "PORT", "USER_STORE", "MONGODB_URI", "MONGODB_DATABASE",
	"DATABASE_URL", "POSTGRES_URL", "PGURL", "PGHOST", "POSTGRES_HOST", "PGUSER", "POSTGRES_USER",
	"PGPASSWORD", "POSTGRES_PASSWORD", "PGDATABASE", "POSTGRES_DB", "PGPORT", "POSTGRES_PORT", "PGSSLMODE",
	"JWT_SECRET", "SECRET", "JWT_ISSUER", "JWT_TTL", "JWT_EXPIRY", "BCRYPT_COST",
	"CORS_ALLOWED_ORIGINS", "REACT_APP_URI", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
	"HTTP_IDLE_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED",
}

// clearEnv blanks every key Load reads; getEnv treats blank values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/auth")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StoreMongo, cfg.UserStore)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_LegacyNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET", "legacy")
	t.Setenv("PORT", "5000")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/auth")
	t.Setenv("REACT_APP_URI", "http://localhost:3000")
	t.Setenv("JWT_EXPIRY", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy", cfg.JWTSecret)
	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
}

func TestLoad_PreferredNamesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET", "legacy")
	t.Setenv("JWT_SECRET", "preferred")
	t.Setenv("PORT", "5000")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("USER_STORE", "MEMORY")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "preferred", cfg.JWTSecret)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, StoreMemory, cfg.UserStore)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: "7000"
user_store: postgres
database_url: postgres://app@db:5432/auth
jwt_secret: from-file
jwt_ttl: 2h
bcrypt_cost: 12
cors_allowed_origins: ["https://a.example", "https://b.example"]
log_format: text
metrics_enabled: false
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("BCRYPT_COST", "11")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.HTTPPort)
	assert.Equal(t, StorePostgres, cfg.UserStore)
	assert.Equal(t, "postgres://app@db:5432/auth", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 11, cfg.BcryptCost, "environment overrides the file")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "opening config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"JWT_TTL":           "soon",
		"BCRYPT_COST":       "ten",
		"HTTP_READ_TIMEOUT": "fast",
		"METRICS_ENABLED":   "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "s")
			t.Setenv("USER_STORE", "memory")
			t.Setenv(key, value)

			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Defaults()
		cfg.JWTSecret = "s"
		cfg.UserStore = StoreMemory
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"JWT_SECRET":   func(c *Config) { c.JWTSecret = "" },
		"JWT_TTL":      func(c *Config) { c.JWTTTL = 0 },
		"BCRYPT_COST":  func(c *Config) { c.BcryptCost = 3 },
		"MONGODB_URI":  func(c *Config) { c.UserStore = StoreMongo },
		"DATABASE_URL": func(c *Config) { c.UserStore = StorePostgres },
		"USER_STORE":   func(c *Config) { c.UserStore = "redis" },
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), want)
		})
	}
}

func TestResolveDatabaseURL(t *testing.T) {
	t.Run("postgresql scheme normalised", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DATABASE_URL", "postgresql://u:p@h:5432/db")
		assert.Equal(t, "postgres://u:p@h:5432/db", resolveDatabaseURL())
	})

	t.Run("non-postgres url ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DATABASE_URL", "mysql://u@h/db")
		assert.Empty(t, resolveDatabaseURL())
	})

	t.Run("composed from PG vars", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PGHOST", "db.internal")
		t.Setenv("PGUSER", "auth")
		t.Setenv("PGPASSWORD", "pw")
		t.Setenv("PGDATABASE", "users")
		t.Setenv("PGSSLMODE", "disable")
		assert.Equal(t, "postgres://auth:pw@db.internal:5432/users?sslmode=disable", resolveDatabaseURL())
	})
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", Config{HTTPPort: "127.0.0.1:8080"}.Addr())
	assert.Equal(t, ":3000", Config{HTTPPort: "3000"}.Addr())
}
