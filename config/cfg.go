package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	httpapi "github.com/jekabolt/grbpwr-analytics/internal/api/http"
	"github.com/jekabolt/grbpwr-analytics/internal/bucket"
	"github.com/jekabolt/grbpwr-analytics/internal/clean"
	"github.com/jekabolt/grbpwr-analytics/internal/csvsource"
	"github.com/jekabolt/grbpwr-analytics/internal/dashboard"
	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	"github.com/jekabolt/grbpwr-analytics/internal/store"
	"github.com/jekabolt/grbpwr-analytics/log"
)

// Raw source kinds.
const (
	SourceMySQL    = "mysql"
	SourcePostgres = "postgres"
	SourceCSV      = "csv"
	SourceBucket   = "bucket"
)

type SourceConfig struct {
	Kind string `mapstructure:"kind" valid:"required,in(mysql|postgres|csv|bucket)"`
	// RecordRuns persists clean runs into the sql store, sql sources only.
	RecordRuns bool `mapstructure:"record_runs"`
	// ReloadInterval reloads the snapshot periodically, zero disables it.
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
}

// CleanConfig holds the data-quality policy in its configurable form.
type CleanConfig struct {
	MinOrderDate       string  `mapstructure:"min_order_date"`
	HighValueThreshold float64 `mapstructure:"high_value_threshold"`
	CapPercentile      float64 `mapstructure:"cap_percentile"`
}

// Policy converts the configuration into a cleaning policy. Unset values keep their defaults.
func (c CleanConfig) Policy() (clean.Policy, error) {
	p := clean.DefaultPolicy()
	if c.MinOrderDate != "" {
		t, err := time.Parse(entity.DateLayout, c.MinOrderDate)
		if err != nil {
			return p, fmt.Errorf("clean.min_order_date must be YYYY-MM-DD: %w", err)
		}
		p.MinOrderDate = t
	}
	if c.HighValueThreshold < 0 {
		return p, fmt.Errorf("clean.high_value_threshold must not be negative")
	}
	if c.HighValueThreshold > 0 {
		p.HighValueThreshold = decimal.NewFromFloat(c.HighValueThreshold)
	}
	if c.CapPercentile != 0 {
		if !govalidator.InRangeFloat64(c.CapPercentile, 0, 1) {
			return p, fmt.Errorf("clean.cap_percentile must be within (0, 1], got %v", c.CapPercentile)
		}
		p.CapPercentile = c.CapPercentile
	}
	return p, nil
}

// Config represents the global configuration for the service.
type Config struct {
	Source SourceConfig     `mapstructure:"source"`
	DB     store.Config     `mapstructure:"mysql"`
	CSV    csvsource.Config `mapstructure:"csv"`
	Bucket bucket.Config    `mapstructure:"bucket"`
	HTTP   httpapi.Config   `mapstructure:"http"`
	Logger log.Config       `mapstructure:"logger"`
	Clean  CleanConfig      `mapstructure:"clean"`
	WhatIf dashboard.Config `mapstructure:"whatif"`
}

// Validate checks the source selection and the settings it depends on.
func (c *Config) Validate() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Source.Kind {
	case SourceMySQL, SourcePostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("invalid config: mysql.dsn is required for source %s", c.Source.Kind)
		}
	case SourceCSV:
		if c.CSV.Dir == "" {
			return fmt.Errorf("invalid config: csv.dir is required for source csv")
		}
	case SourceBucket:
		if c.Bucket.S3Endpoint == "" || c.Bucket.S3BucketName == "" {
			return fmt.Errorf("invalid config: bucket.s3_endpoint and bucket.s3_bucket_name are required for source bucket")
		}
	}
	if !govalidator.InRangeFloat64(c.WhatIf.BaselineNPS, -100, 100) {
		return fmt.Errorf("invalid config: whatif.baseline_nps must be within [-100, 100]")
	}
	if _, err := c.Clean.Policy(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.HTTP.Proxies(); err != nil {
		return fmt.Errorf("invalid config: http.trusted_proxies: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from a file and/or environment variables.
// Environment variables take precedence over config file values, and a .env
// file in the working directory is loaded into the environment first.
func LoadConfig(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.AutomaticEnv()
	// mysql.dsn -> MYSQL__DSN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))
	setDefaults(v)
	bindEnvVars(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/config/grbpwr-analytics")
		v.AddConfigPath("/etc/grbpwr-analytics")
		_ = v.ReadInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config into struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", SourceCSV)
	v.SetDefault("csv.dir", "data")
	v.SetDefault("mysql.driver", store.DriverMySQL)
	v.SetDefault("mysql.automigrate", true)
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.reloads_per_minute", 6)
	v.SetDefault("whatif.baseline_nps", 40)
}

// bindEnvVars allows flat env names (MYSQL_DSN) next to nested ones (MYSQL__DSN).
func bindEnvVars(v *viper.Viper) {
	// Source
	v.BindEnv("source.kind", "SOURCE_KIND")
	v.BindEnv("source.record_runs", "SOURCE_RECORD_RUNS")
	v.BindEnv("source.reload_interval", "SOURCE_RELOAD_INTERVAL")

	// SQL
	v.BindEnv("mysql.driver", "MYSQL_DRIVER")
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("mysql.automigrate", "MYSQL_AUTOMIGRATE")
	v.BindEnv("mysql.max_open_connections", "MYSQL_MAX_OPEN_CONNECTIONS")
	v.BindEnv("mysql.max_idle_connections", "MYSQL_MAX_IDLE_CONNECTIONS")
	v.BindEnv("mysql.tls_ca_path", "MYSQL_TLS_CA_PATH")

	// CSV
	v.BindEnv("csv.dir", "CSV_DIR")

	// Bucket
	v.BindEnv("bucket.s3_access_key", "BUCKET_S3_ACCESS_KEY")
	v.BindEnv("bucket.s3_secret_access_key", "BUCKET_S3_SECRET_ACCESS_KEY")
	v.BindEnv("bucket.s3_endpoint", "BUCKET_S3_ENDPOINT")
	v.BindEnv("bucket.s3_bucket_name", "BUCKET_S3_BUCKET_NAME")
	v.BindEnv("bucket.s3_bucket_location", "BUCKET_S3_BUCKET_LOCATION")
	v.BindEnv("bucket.base_folder", "BUCKET_BASE_FOLDER")
	v.BindEnv("bucket.insecure", "BUCKET_INSECURE")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.add_source", "LOG_ADD_SOURCE")

	// HTTP
	v.BindEnv("http.port", "HTTP_PORT")
	v.BindEnv("http.address", "HTTP_ADDRESS")
	v.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")
	v.BindEnv("http.request_timeout", "HTTP_REQUEST_TIMEOUT")
	v.BindEnv("http.reloads_per_minute", "HTTP_RELOADS_PER_MINUTE")
	v.BindEnv("http.trusted_proxies", "HTTP_TRUSTED_PROXIES")

	// Cleaning
	v.BindEnv("clean.min_order_date", "CLEAN_MIN_ORDER_DATE")
	v.BindEnv("clean.high_value_threshold", "CLEAN_HIGH_VALUE_THRESHOLD")
	v.BindEnv("clean.cap_percentile", "CLEAN_CAP_PERCENTILE")

	// What-if
	v.BindEnv("whatif.baseline_nps", "WHATIF_BASELINE_NPS")
	v.BindEnv("whatif.coefficients_file", "WHATIF_COEFFICIENTS_FILE")
}
