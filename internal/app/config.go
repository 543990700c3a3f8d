package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/veritas-backend/internal/data/db"
	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/envutil"
	"github.com/yungbote/veritas-backend/internal/realtime/bus"
	"github.com/yungbote/veritas-backend/internal/temporalx"
	"github.com/yungbote/veritas-backend/internal/trust"
)

const (
	DispatchInline   = "inline"
	DispatchLocal    = "local"
	DispatchTemporal = "temporal"
)

type Config struct {
	LogMode     string `yaml:"log_mode"`
	Environment string `yaml:"environment"`

	Database  db.Config        `yaml:"database"`
	Scoring   trust.Config     `yaml:"scoring"`
	Recompute RecomputeConfig  `yaml:"recompute"`
	Redis     bus.RedisConfig  `yaml:"redis"`
	Temporal  temporalx.Config `yaml:"temporal"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

type RecomputeConfig struct {
	// Dispatcher is one of inline, local or temporal.
	Dispatcher  string        `yaml:"dispatcher"`
	Workers     int           `yaml:"workers"`
	QueueSize   int           `yaml:"queue_size"`
	Parallelism int           `yaml:"parallelism"`
	FrozenTTL   time.Duration `yaml:"frozen_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig seeds every key from the legacy environment so a bare
// deployment without a config file keeps working.
func DefaultConfig() Config {
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("ENVIRONMENT", "local"),
		Database: db.Config{
			Driver:   envutil.String("DB_DRIVER", db.DriverPostgres),
			DSN:      envutil.String("DATABASE_URL", ""),
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "veritas"),
		},
		Scoring: trust.DefaultConfig(),
		Recompute: RecomputeConfig{
			Dispatcher:  envutil.String("RECOMPUTE_DISPATCHER", DispatchInline),
			Workers:     envutil.Int("RECOMPUTE_WORKERS", 4),
			QueueSize:   envutil.Int("RECOMPUTE_QUEUE_SIZE", 1024),
			Parallelism: envutil.Int("RECOMPUTE_PARALLELISM", 4),
			FrozenTTL:   envutil.Seconds("RECOMPUTE_FROZEN_TTL_SECONDS", 3600),
		},
		Redis: bus.RedisConfig{
			Addr:    envutil.String("REDIS_ADDR", ""),
			Channel: envutil.String("REDIS_CHANNEL", bus.DefaultChannel),
		},
		Temporal: temporalx.LoadConfig(),
		Metrics: MetricsConfig{
			Enabled: observability.Enabled(),
			Addr:    envutil.String("METRICS_ADDR", ":9090"),
		},
	}
}

func (c Config) Validate() error {
	var errs []error
	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}
	switch c.Recompute.Dispatcher {
	case DispatchInline, DispatchLocal:
	case DispatchTemporal:
		if strings.TrimSpace(c.Temporal.Address) == "" {
			errs = append(errs, errors.New("recompute: temporal dispatcher requires temporal.address"))
		}
	default:
		errs = append(errs, fmt.Errorf("recompute: unknown dispatcher %q", c.Recompute.Dispatcher))
	}
	if c.Recompute.Workers < 1 {
		errs = append(errs, fmt.Errorf("recompute: workers must be >= 1, got %d", c.Recompute.Workers))
	}
	switch c.Database.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database: unknown driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// DefaultsYAML renders DefaultConfig. Loading it into viper first registers
// every key, which is what lets VERITAS_* variables override nested fields.
func DefaultsYAML() ([]byte, error) {
	return yaml.Marshal(DefaultConfig())
}

// LoadConfig decodes v over DefaultConfig and validates the result.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if v != nil {
		err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
			dc.TagName = "yaml"
			dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
				decimalHook,
				mapstructure.StringToTimeDurationHookFunc(),
			)
		})
		if err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.Temporal = cfg.Temporal.Merge(temporalx.LoadConfig())
	cfg.Recompute.Dispatcher = strings.ToLower(strings.TrimSpace(cfg.Recompute.Dispatcher))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	return cfg, cfg.Validate()
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot decode %s into decimal", from)
	}
}
