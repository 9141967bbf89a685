package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jrjohn/arcana-account-adaptor/internal/middleware"
	"github.com/jrjohn/arcana-account-adaptor/internal/observability"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	"github.com/jrjohn/arcana-account-adaptor/pkg/logger"
)

// EnvPrefix is the prefix of every environment override, e.g. ACCOUNT_SERVER_PORT.
const EnvPrefix = "ACCOUNT"

// Config holds all application configuration
type Config struct {
	App      AppConfig                   `mapstructure:"app"`
	Server   ServerConfig                `mapstructure:"server"`
	Log      logger.Config               `mapstructure:"log"`
	Database DatabaseConfig              `mapstructure:"database"`
	Adaptor  options.Options             `mapstructure:"adaptor"`
	Schema   SchemaConfig                `mapstructure:"schema"`
	Metrics  observability.MetricsConfig `mapstructure:"metrics"`
	Tracing  observability.TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	CORS middleware.CORSConfig `mapstructure:"cors"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig describes the MongoDB endpoint when no connection URI is given.
type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	AuthSource string `mapstructure:"auth_source"`
	ReplicaSet string `mapstructure:"replica_set"`
}

// SchemaConfig lists the extra profile fields the host declares besides username and email.
type SchemaConfig struct {
	ProfileFields []string `mapstructure:"profile_fields"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/account-adaptor/")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFile reads configuration from an explicit file plus environment variables.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, "adaptor", reflect.TypeOf(options.Options{}))
	_ = v.BindEnv("adaptor.connection_uri", EnvPrefix+"_ADAPTOR_CONNECTION_URI", "MONGODB_URI")
	setDefaults(v)
	return v
}

// bindEnvs registers every mapstructure key of t under prefix so that
// AutomaticEnv also reaches keys that have no default, like the adaptor's
// optional flags and field names.
func bindEnvs(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "." + tag
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			bindEnvs(v, key, f.Type)
			continue
		}
		_ = v.BindEnv(key)
	}
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Adaptor.ConnectionURI == "" {
		cfg.Adaptor.ConnectionURI = cfg.Database.URI()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "account-adaptor")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	cors := middleware.DefaultCORSConfig()
	v.SetDefault("server.cors.allow_origins", cors.AllowOrigins)
	v.SetDefault("server.cors.allow_methods", cors.AllowMethods)
	v.SetDefault("server.cors.allow_headers", cors.AllowHeaders)
	v.SetDefault("server.cors.expose_headers", cors.ExposeHeaders)
	v.SetDefault("server.cors.allow_credentials", cors.AllowCredentials)
	v.SetDefault("server.cors.max_age", cors.MaxAge)

	// Logger defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.name", logger.DefaultName)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 27017)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.auth_source", "")
	v.SetDefault("database.replica_set", "")

	// Adaptor defaults; unset flags stay nil and take the adaptor's own defaults
	v.SetDefault("adaptor.connection_uri", "")
	v.SetDefault("adaptor.driver.database", options.DefaultDatabase)
	v.SetDefault("adaptor.driver.collection", options.DefaultCollection)
	v.SetDefault("adaptor.driver.app_name", "account-adaptor")
	v.SetDefault("adaptor.driver.max_pool_size", 100)
	v.SetDefault("adaptor.driver.connect_timeout", options.DefaultConnectTimeout)
	v.SetDefault("adaptor.driver.server_selection_timeout", options.DefaultServerSelectionTimeout)

	// Schema defaults
	v.SetDefault("schema.profile_fields", []string{"firstName", "lastName"})

	// Observability defaults
	metrics := observability.DefaultMetricsConfig()
	v.SetDefault("metrics.enabled", metrics.Enabled)
	v.SetDefault("metrics.service_name", metrics.ServiceName)
	v.SetDefault("metrics.prometheus_path", metrics.PrometheusPath)

	tracing := observability.DefaultTracingConfig()
	v.SetDefault("tracing.enabled", tracing.Enabled)
	v.SetDefault("tracing.service_name", tracing.ServiceName)
	v.SetDefault("tracing.service_version", tracing.ServiceVersion)
	v.SetDefault("tracing.environment", tracing.Environment)
	v.SetDefault("tracing.exporter_type", tracing.ExporterType)
	v.SetDefault("tracing.otlp_endpoint", tracing.OTLPEndpoint)
	v.SetDefault("tracing.otlp_insecure", tracing.OTLPInsecure)
	v.SetDefault("tracing.sampling_rate", tracing.SamplingRate)
}

// Validate checks the host settings. Adaptor options are validated when the adaptor attaches.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing sampling rate %v must be within [0, 1]", c.Tracing.SamplingRate)
	}
	switch c.Tracing.ExporterType {
	case "", "stdout", "otlp-grpc", "otlp-http":
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.Tracing.ExporterType)
	}
	return nil
}

// URI returns the MongoDB connection URI, or "" when no host is configured.
func (c *DatabaseConfig) URI() string {
	if c.Host == "" {
		return ""
	}
	u := url.URL{Scheme: "mongodb", Host: c.Host, Path: "/"}
	if c.Port > 0 {
		u.Host = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.AuthSource != "" {
		q.Set("authSource", c.AuthSource)
	}
	if c.ReplicaSet != "" {
		q.Set("replicaSet", c.ReplicaSet)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
