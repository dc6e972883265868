package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	StoreMemory   = "memory"
	StorePostgres = "postgres"

	SinkLog   = "log"
	SinkKafka = "kafka"
	SinkNone  = "none"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"dev"`
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"office-pools-api"`
	ServiceVersion  string        `env:"SERVICE_VERSION" envDefault:"dev"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	WorkflowTimeout time.Duration `env:"WORKFLOW_TIMEOUT" envDefault:"60s"`

	StoreDriver             string `env:"STORE_DRIVER" envDefault:"memory"`
	DBURL                   string `env:"DB_URL"`
	DBDisablePreparedBinary bool   `env:"DB_DISABLE_PREPARED_BINARY_RESULT" envDefault:"true"`

	RetryMaxAttempts           int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay             time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1s"`
	StoreCircuitEnabled        bool          `env:"STORE_CIRCUIT_ENABLED" envDefault:"false"`
	StoreCircuitFailureCount   int           `env:"STORE_CIRCUIT_FAILURE_COUNT" envDefault:"5"`
	StoreCircuitOpenTimeout    time.Duration `env:"STORE_CIRCUIT_OPEN_TIMEOUT" envDefault:"15s"`
	StoreCircuitHalfOpenMaxReq int           `env:"STORE_CIRCUIT_HALF_OPEN_MAX_REQ" envDefault:"2"`

	InviteCodeLength      int           `env:"INVITE_CODE_LENGTH" envDefault:"6"`
	InviteCodeMaxAttempts int           `env:"INVITE_CODE_MAX_ATTEMPTS" envDefault:"5"`
	CacheTTL              time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	RescoreWorkers        int           `env:"RESCORE_WORKERS" envDefault:"4"`
	ImportConcurrency     int           `env:"IMPORT_CONCURRENCY" envDefault:"4"`

	TelemetrySink string   `env:"TELEMETRY_SINK" envDefault:"log"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic    string   `env:"KAFKA_TOPIC" envDefault:"office-pools.events"`

	InternalJobToken   string   `env:"INTERNAL_JOB_TOKEN"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	UptraceEnabled bool   `env:"UPTRACE_ENABLED" envDefault:"false"`
	UptraceDSN     string `env:"UPTRACE_DSN"`

	PyroscopeEnabled           bool          `env:"PYROSCOPE_ENABLED" envDefault:"false"`
	PyroscopeServerAddress     string        `env:"PYROSCOPE_SERVER_ADDRESS"`
	PyroscopeAppName           string        `env:"PYROSCOPE_APP_NAME"`
	PyroscopeAuthToken         string        `env:"PYROSCOPE_AUTH_TOKEN"`
	PyroscopeBasicAuthUser     string        `env:"PYROSCOPE_BASIC_AUTH_USER"`
	PyroscopeBasicAuthPassword string        `env:"PYROSCOPE_BASIC_AUTH_PASSWORD"`
	PyroscopeUploadRate        time.Duration `env:"PYROSCOPE_UPLOAD_RATE" envDefault:"15s"`

	PprofEnabled bool   `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAddr    string `env:"PPROF_ADDR" envDefault:"127.0.0.1:6060"`

	LogLevelName string `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogLevel     logging.Level
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	appEnv, err := parseAppEnv(c.AppEnv)
	if err != nil {
		return err
	}
	c.AppEnv = appEnv
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.TelemetrySink = strings.ToLower(strings.TrimSpace(c.TelemetrySink))
	c.DBURL = strings.TrimSpace(c.DBURL)
	c.InternalJobToken = strings.TrimSpace(c.InternalJobToken)
	c.UptraceDSN = strings.TrimSpace(c.UptraceDSN)
	c.CORSAllowedOrigins = trimAll(c.CORSAllowedOrigins)
	c.KafkaBrokers = trimAll(c.KafkaBrokers)
	c.LogLevel = logging.ParseLevel(c.LogLevelName)

	for name, d := range map[string]time.Duration{
		"READ_TIMEOUT":     c.ReadTimeout,
		"WRITE_TIMEOUT":    c.WriteTimeout,
		"WORKFLOW_TIMEOUT": c.WorkflowTimeout,
		"CACHE_TTL":        c.CacheTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must be >= 0")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1")
	}
	if c.StoreCircuitFailureCount < 1 {
		return fmt.Errorf("STORE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if c.StoreCircuitOpenTimeout <= 0 {
		return fmt.Errorf("STORE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	if c.StoreCircuitHalfOpenMaxReq < 1 {
		return fmt.Errorf("STORE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	if c.InviteCodeLength < 4 || c.InviteCodeLength > 10 {
		return fmt.Errorf("INVITE_CODE_LENGTH must be in [4,10]")
	}
	if c.InviteCodeMaxAttempts < 1 {
		return fmt.Errorf("INVITE_CODE_MAX_ATTEMPTS must be >= 1")
	}
	if c.RescoreWorkers < 1 || c.ImportConcurrency < 1 {
		return fmt.Errorf("RESCORE_WORKERS and IMPORT_CONCURRENCY must be >= 1")
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DBURL == "" {
			return fmt.Errorf("DB_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: valid values are %s, %s", c.StoreDriver, StoreMemory, StorePostgres)
	}

	switch c.TelemetrySink {
	case SinkLog, SinkNone:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when TELEMETRY_SINK=kafka")
		}
		if strings.TrimSpace(c.KafkaTopic) == "" {
			return fmt.Errorf("KAFKA_TOPIC is required when TELEMETRY_SINK=kafka")
		}
	default:
		return fmt.Errorf("invalid TELEMETRY_SINK %q: valid values are %s, %s, %s", c.TelemetrySink, SinkLog, SinkKafka, SinkNone)
	}

	if c.UptraceEnabled && c.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if c.PyroscopeAppName == "" {
		c.PyroscopeAppName = c.ServiceName
	}
	if c.PyroscopeEnabled && strings.TrimSpace(c.PyroscopeServerAddress) == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if c.PyroscopeUploadRate <= 0 {
		return fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	if c.PprofEnabled && strings.TrimSpace(c.PprofAddr) == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return nil
}

// RetryConfig is the store retry budget shared by every service.
func (c Config) RetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   c.RetryBaseDelay,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          c.StoreCircuitEnabled,
			FailureThreshold: c.StoreCircuitFailureCount,
			OpenTimeout:      c.StoreCircuitOpenTimeout,
			HalfOpenMaxReq:   c.StoreCircuitHalfOpenMaxReq,
		},
	}
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
