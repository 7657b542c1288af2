package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported user stores.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config centralises runtime configuration.
type Config struct {
	HTTPPort        string        `yaml:"http_port"`
	UserStore       string        `yaml:"user_store"`
	MongoURI        string        `yaml:"mongodb_uri"`
	MongoDatabase   string        `yaml:"mongodb_database"`
	DatabaseURL     string        `yaml:"database_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTTTL          time.Duration `yaml:"jwt_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	AllowedOrigins  []string      `yaml:"cors_allowed_origins"`
	ReadTimeoutSec  int           `yaml:"http_read_timeout"`
	WriteTimeoutSec int           `yaml:"http_write_timeout"`
	IdleTimeoutSec  int           `yaml:"http_idle_timeout"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		HTTPPort:        "8080",
		UserStore:       StoreMongo,
		JWTTTL:          time.Hour,
		BcryptCost:      10,
		AllowedOrigins:  []string{"*"},
		ReadTimeoutSec:  15,
		WriteTimeoutSec: 15,
		IdleTimeoutSec:  60,
		LogLevel:        "info",
		LogFormat:       "json",
		MetricsEnabled:  true,
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence. A .env
// file in the working directory is loaded first without overriding variables
// that are already set.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports missing or out-of-range settings.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be within [4..31], got %d", c.BcryptCost)
	}
	switch c.UserStore {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo user store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database configuration missing: provide DATABASE_URL or PG* env vars")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}
	return nil
}

// Addr returns the listen address derived from HTTPPort.
func (c Config) Addr() string {
	if strings.Contains(c.HTTPPort, ":") {
		return c.HTTPPort
	}
	return ":" + c.HTTPPort
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := getEnv("HTTP_PORT", getEnv("PORT", "")); v != "" {
		cfg.HTTPPort = v
	}
	if v := getEnv("USER_STORE", ""); v != "" {
		cfg.UserStore = strings.ToLower(v)
	}
	if v := getEnv("MONGODB_URI", ""); v != "" {
		cfg.MongoURI = v
	}
	if v := getEnv("MONGODB_DATABASE", ""); v != "" {
		cfg.MongoDatabase = v
	}
	if v := resolveDatabaseURL(); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("JWT_SECRET", getEnv("SECRET", "")); v != "" {
		cfg.JWTSecret = v
	}
	if v := getEnv("JWT_ISSUER", ""); v != "" {
		cfg.JWTIssuer = v
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", getEnv("REACT_APP_URI", "")); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("LOG_FORMAT", ""); v != "" {
		cfg.LogFormat = v
	}

	var err error
	if cfg.JWTTTL, err = durationEnv(cfg.JWTTTL, "JWT_TTL", "JWT_EXPIRY"); err != nil {
		return err
	}
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return err
	}
	if cfg.ReadTimeoutSec, err = intEnv("HTTP_READ_TIMEOUT", cfg.ReadTimeoutSec); err != nil {
		return err
	}
	if cfg.WriteTimeoutSec, err = intEnv("HTTP_WRITE_TIMEOUT", cfg.WriteTimeoutSec); err != nil {
		return err
	}
	if cfg.IdleTimeoutSec, err = intEnv("HTTP_IDLE_TIMEOUT", cfg.IdleTimeoutSec); err != nil {
		return err
	}
	if v := getEnv("METRICS_ENABLED", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		cfg.MetricsEnabled = b
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func durationEnv(current time.Duration, keys ...string) (time.Duration, error) {
	for _, key := range keys {
		val := getEnv(key, "")
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	}
	return current, nil
}

func intEnv(key string, current int) (int, error) {
	val := getEnv(key, "")
	if val == "" {
		return current, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer", key)
	}
	return n, nil
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

func resolveDatabaseURL() string {
	for _, key := range []string{"DATABASE_URL", "POSTGRES_URL", "PGURL"} {
		if url := os.Getenv(key); url != "" {
			if coerced := coerceDatabaseURL(url); coerced != "" {
				return coerced
			}
		}
	}

	host := firstNonEmpty(os.Getenv("PGHOST"), os.Getenv("POSTGRES_HOST"))
	user := firstNonEmpty(os.Getenv("PGUSER"), os.Getenv("POSTGRES_USER"))
	if host == "" || user == "" {
		return ""
	}
	password := firstNonEmpty(os.Getenv("PGPASSWORD"), os.Getenv("POSTGRES_PASSWORD"))
	database := firstNonEmpty(os.Getenv("PGDATABASE"), os.Getenv("POSTGRES_DB"), user)
	port := firstNonEmpty(os.Getenv("PGPORT"), os.Getenv("POSTGRES_PORT"), "5432")
	sslMode := firstNonEmpty(os.Getenv("PGSSLMODE"), "require")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()

	return dsn.String()
}

func normalisePostgresScheme(url string) string {
	if strings.HasPrefix(url, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(url, "postgresql://")
	}
	return url
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return normalisePostgresScheme(raw)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
