package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds one external data provider's access settings.
// A provider with an empty api_key is disabled, not an error.
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Quota       int           `yaml:"quota"`        // calls per window
	QuotaWindow time.Duration `yaml:"quota_window"` // rolling window length
}

// Enabled reports whether the provider has key material configured.
func (p ProviderConfig) Enabled() bool { return p.APIKey != "" }

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Scheduler struct {
		PollInterval    time.Duration `yaml:"poll_interval"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout"`
		Workers         int           `yaml:"workers"`
		RetryBackoff    time.Duration `yaml:"retry_backoff"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"scheduler"`
	Congestion struct {
		Threshold float64 `yaml:"threshold"`
		Metric    string  `yaml:"metric"` // vessels_waiting or avg_wait_hours
	} `yaml:"congestion"`
	Providers struct {
		Priority    []string       `yaml:"priority"` // reconciler tie-break order
		Ports       []string       `yaml:"ports"`    // UN/LOCODEs polled for congestion/weather
		AISHub      ProviderConfig `yaml:"aishub"`
		AISStream   ProviderConfig `yaml:"aisstream"`
		PortWatch   ProviderConfig `yaml:"portwatch"`
		StormGlass  ProviderConfig `yaml:"stormglass"`
		MeteoSource ProviderConfig `yaml:"meteosource"`
	} `yaml:"providers"`
	Notifier struct {
		MaxAttempts int           `yaml:"max_attempts"`
		BackoffBase time.Duration `yaml:"backoff_base"`
		Channel     string        `yaml:"channel"` // log, redis, kafka
	} `yaml:"notifier"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Mirror   bool   `yaml:"mirror"` // mirror canonical state for external readers
	} `yaml:"redis"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
}

// parse reads the YAML file without defaulting or validating.
func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Overrides land before validation, so a keyless YAML plus
// env-supplied API keys is a valid bootstrap.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("AISHUB_API_KEY"); v != "" {
		c.Providers.AISHub.APIKey = v
	}
	if v := os.Getenv("AISSTREAM_API_KEY"); v != "" {
		c.Providers.AISStream.APIKey = v
	}
	if v := os.Getenv("PORTWATCH_API_KEY"); v != "" {
		c.Providers.PortWatch.APIKey = v
	}
	if v := os.Getenv("STORMGLASS_API_KEY"); v != "" {
		c.Providers.StormGlass.APIKey = v
	}
	if v := os.Getenv("METEOSOURCE_API_KEY"); v != "" {
		c.Providers.MeteoSource.APIKey = v
	}
	if v := os.Getenv("PORTS"); v != "" {
		c.Providers.Ports = strings.Split(v, ",")
	}
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Scheduler.PollInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("CONGESTION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Congestion.Threshold = f
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Scheduler.PollInterval <= 0 {
		c.Scheduler.PollInterval = 60 * time.Second
	}
	if c.Scheduler.FetchTimeout <= 0 {
		c.Scheduler.FetchTimeout = 10 * time.Second
	}
	if c.Scheduler.Workers <= 0 {
		c.Scheduler.Workers = 4
	}
	if c.Scheduler.RetryBackoff <= 0 {
		c.Scheduler.RetryBackoff = 500 * time.Millisecond
	}
	if c.Scheduler.ShutdownTimeout <= 0 {
		c.Scheduler.ShutdownTimeout = 15 * time.Second
	}
	if c.Congestion.Threshold <= 0 {
		c.Congestion.Threshold = 75
	}
	if c.Congestion.Metric == "" {
		c.Congestion.Metric = "vessels_waiting"
	}
	if c.Notifier.MaxAttempts <= 0 {
		c.Notifier.MaxAttempts = 3
	}
	if c.Notifier.BackoffBase <= 0 {
		c.Notifier.BackoffBase = time.Second
	}
	if c.Notifier.Channel == "" {
		c.Notifier.Channel = "log"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Congestion.Metric {
	case "vessels_waiting", "avg_wait_hours":
	default:
		return fmt.Errorf("congestion.metric must be 'vessels_waiting' or 'avg_wait_hours', got '%s'", c.Congestion.Metric)
	}
	switch c.Notifier.Channel {
	case "log", "redis", "kafka":
	default:
		return fmt.Errorf("notifier.channel must be 'log', 'redis' or 'kafka', got '%s'", c.Notifier.Channel)
	}
	if c.Notifier.Channel == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when notifier.channel is 'kafka'")
	}
	if c.Notifier.Channel == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when notifier.channel is 'redis'")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse.enabled")
	}
	enabled := 0
	for _, p := range []ProviderConfig{
		c.Providers.AISHub, c.Providers.AISStream,
		c.Providers.PortWatch, c.Providers.StormGlass, c.Providers.MeteoSource,
	} {
		if p.Enabled() {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one provider api_key is required")
	}
	return nil
}
