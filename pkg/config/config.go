package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "cartsvc"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Sale         SaleConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTSVC_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTSVC_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CARTSVC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTSVC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"CARTSVC_DB_DSN"`

	Host     string `envconfig:"CARTSVC_DB_HOST"`
	Port     int    `envconfig:"CARTSVC_DB_PORT" default:"5432"`
	User     string `envconfig:"CARTSVC_DB_USER"`
	Password string `envconfig:"CARTSVC_DB_PASSWORD"`
	Name     string `envconfig:"CARTSVC_DB_NAME"`
	SSLMode  string `envconfig:"CARTSVC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARTSVC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARTSVC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARTSVC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTSVC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a DSN from discrete fields when one was not provided.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either CARTSVC_DB_DSN or CARTSVC_DB_HOST/USER/NAME is required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTSVC_REDIS_URL"`
	Address      string        `envconfig:"CARTSVC_REDIS_ADDR"`
	Password     string        `envconfig:"CARTSVC_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTSVC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTSVC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTSVC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTSVC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTSVC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTSVC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SaleConfig drives the sale-worker cadence. Effects themselves live in
// internal/sale and take the chosen product as input.
type SaleConfig struct {
	FlashInterval         time.Duration `envconfig:"CARTSVC_SALE_FLASH_INTERVAL" default:"30s"`
	FlashProbability      float64       `envconfig:"CARTSVC_SALE_FLASH_PROBABILITY" default:"0.3"`
	RecommendationEnabled bool          `envconfig:"CARTSVC_SALE_RECOMMENDATION_ENABLED" default:"true"`
	RecommendInterval     time.Duration `envconfig:"CARTSVC_SALE_RECOMMEND_INTERVAL" default:"60s"`
	LockTTL               time.Duration `envconfig:"CARTSVC_SALE_LOCK_TTL" default:"25s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CARTSVC_AUTO_MIGRATE" default:"false"`
}
