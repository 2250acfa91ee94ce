package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Port           string        `env:"PORT,            default=3000"`
	Env            string        `env:"ENV,             default=development"`
	LogLevel       string        `env:"LOG_LEVEL,       default=info"`
	JWTSecret      string        `env:"JWT_SECRET,      required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,       default=0s"`
	BcryptCost     int           `env:"BCRYPT_COST,     default=10"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS, default=http://localhost:3000,http://localhost:3001,http://localhost:8080,http://localhost:4200"`
	StoreDriver    string        `env:"STORE_DRIVER,    default=sqlite"`

	SQLite    SQLiteConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Influx    InfluxConfig
	RateLimit RateLimitConfig
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=./data/pfe.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=pfe_backend"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// InfluxConfig leaves telemetry disabled while URL is empty.
type InfluxConfig struct {
	URL     string `env:"INFLUXDB_URL"`
	Token   string `env:"INFLUXDB_TOKEN"`
	Org     string `env:"INFLUXDB_ORG"`
	Workers int    `env:"TELEMETRY_WORKERS, default=4"`
}

type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED, default=true"`
}

// Enabled reports whether the time-series store is configured.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// IsDevelopment reports whether the process runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Influx.Enabled() && (c.Influx.Token == "" || c.Influx.Org == "") {
		return errors.New("config: INFLUXDB_TOKEN and INFLUXDB_ORG are required when INFLUXDB_URL is set")
	}
	return nil
}
