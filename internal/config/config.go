package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr                  string   `yaml:"addr"`
		FrontendURL           string   `yaml:"frontend_url"`
		AllowedOrigins        []string `yaml:"allowed_origins"`
		RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Auth struct {
		Domain   string `yaml:"domain"`
		Audience string `yaml:"audience"`
		JWKSURL  string `yaml:"jwks_url"`
		// DevSecret enables HS256 tokens signed with a shared secret. Local only.
		DevSecret string `yaml:"dev_secret"`
	} `yaml:"auth"`
	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		Currency      string `yaml:"currency"`
	} `yaml:"stripe"`
	Storage struct {
		Driver        string `yaml:"driver"`
		Bucket        string `yaml:"bucket"`
		Region        string `yaml:"region"`
		PublicBaseURL string `yaml:"public_base_url"`
		LocalDir      string `yaml:"local_dir"`
	} `yaml:"storage"`
	Catalog struct {
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		FeaturedBaseURL string  `yaml:"featured_base_url"`
		CacheDriver     string  `yaml:"cache_driver"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		CacheCapacity   int     `yaml:"cache_capacity"`
		RedisAddr       string  `yaml:"redis_addr"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		RateBurst       int     `yaml:"rate_burst"`
	} `yaml:"catalog"`
	Events struct {
		Driver       string   `yaml:"driver"`
		RabbitURL    string   `yaml:"rabbit_url"`
		Exchange     string   `yaml:"exchange"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"events"`
	Worker struct {
		IntervalSeconds   int64 `yaml:"interval_seconds"`
		StaleAfterMinutes int   `yaml:"stale_after_minutes"`
		BatchSize         int   `yaml:"batch_size"`
	} `yaml:"worker"`
	Tracing struct {
		Exporter     string  `yaml:"exporter"`
		OTLPEndpoint string  `yaml:"otlp_endpoint"`
		SampleRatio  float64 `yaml:"sample_ratio"`
		ServiceName  string  `yaml:"service_name"`
	} `yaml:"tracing"`
}

// Load reads the YAML config at path (or CONFIG_PATH, or configs/config.yaml),
// applies environment overrides and validates required fields. A .env file in
// the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.DB.DSN == "" {
		return errors.New("db.dsn is required")
	}
	if c.Auth.Domain == "" && c.Auth.DevSecret == "" {
		return errors.New("auth.domain or auth.dev_secret is required")
	}
	if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
		return errors.New("stripe config is incomplete")
	}
	switch c.Storage.Driver {
	case "s3":
		if c.Storage.Bucket == "" || c.Storage.Region == "" {
			return errors.New("storage.bucket and storage.region are required for s3")
		}
	case "local":
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir is required for local storage")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Catalog.CacheDriver {
	case "memory":
	case "redis":
		if c.Catalog.RedisAddr == "" {
			return errors.New("catalog.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown catalog.cache_driver %q", c.Catalog.CacheDriver)
	}
	switch c.Events.Driver {
	case "none":
	case "rabbitmq":
		if c.Events.RabbitURL == "" {
			return errors.New("events.rabbit_url is required")
		}
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return errors.New("events.kafka_brokers is required")
		}
	default:
		return fmt.Errorf("unknown events.driver %q", c.Events.Driver)
	}
	switch c.Tracing.Exporter {
	case "none", "stdout":
	case "otlp":
		if c.Tracing.OTLPEndpoint == "" {
			return errors.New("tracing.otlp_endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unknown tracing.exporter %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio > 1 {
		return errors.New("tracing.sample_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Catalog.CacheTTLSeconds) * time.Second
}

func (c *Config) WorkerInterval() time.Duration {
	return time.Duration(c.Worker.IntervalSeconds) * time.Second
}

func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Worker.StaleAfterMinutes) * time.Minute
}

// JWKSURL falls back to the well-known location under the auth domain.
func (c *Config) JWKSURL() string {
	if c.Auth.JWKSURL != "" {
		return c.Auth.JWKSURL
	}
	if c.Auth.Domain == "" {
		return ""
	}
	return "https://" + strings.TrimSuffix(c.Auth.Domain, "/") + "/.well-known/jwks.json"
}

func (c *Config) Issuer() string {
	if c.Auth.Domain == "" {
		return ""
	}
	return "https://" + strings.TrimSuffix(c.Auth.Domain, "/") + "/"
}

func applyDefaults(cfg *Config) {
	if cfg.Server.FrontendURL == "" {
		cfg.Server.FrontendURL = "http://localhost:5173"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{cfg.Server.FrontendURL}
	}
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		cfg.Server.RequestTimeoutSeconds = 30
	}
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "s3"
	}
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = "https://api.pokemontcg.io/v2"
	}
	if cfg.Catalog.CacheDriver == "" {
		cfg.Catalog.CacheDriver = "memory"
	}
	if cfg.Catalog.CacheTTLSeconds <= 0 {
		cfg.Catalog.CacheTTLSeconds = 3600
	}
	if cfg.Catalog.CacheCapacity <= 0 {
		cfg.Catalog.CacheCapacity = 1000
	}
	if cfg.Catalog.RatePerSecond <= 0 {
		cfg.Catalog.RatePerSecond = 10
	}
	if cfg.Catalog.RateBurst <= 0 {
		cfg.Catalog.RateBurst = 20
	}
	if cfg.Events.Driver == "" {
		cfg.Events.Driver = "none"
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "pokeshop.events"
	}
	if cfg.Events.KafkaTopic == "" {
		cfg.Events.KafkaTopic = "pokeshop.events"
	}
	if cfg.Worker.IntervalSeconds <= 0 {
		cfg.Worker.IntervalSeconds = 60
	}
	if cfg.Worker.StaleAfterMinutes <= 0 {
		cfg.Worker.StaleAfterMinutes = 30
	}
	if cfg.Worker.BatchSize <= 0 {
		cfg.Worker.BatchSize = 50
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "none"
	}
	if cfg.Tracing.SampleRatio <= 0 {
		cfg.Tracing.SampleRatio = 1
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "pokeshop-api"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.FrontendURL = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitCommaList(v)
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("AUTH0_DOMAIN"); v != "" {
		cfg.Auth.Domain = v
	}
	if v := os.Getenv("AUTH0_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}
	if v := os.Getenv("AUTH_JWKS_URL"); v != "" {
		cfg.Auth.JWKSURL = v
	}
	if v := os.Getenv("AUTH_DEV_SECRET"); v != "" {
		cfg.Auth.DevSecret = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Stripe.SecretKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Stripe.WebhookSecret = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("AWS_S3_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("STORAGE_PUBLIC_BASE_URL"); v != "" {
		cfg.Storage.PublicBaseURL = v
	}
	if v := os.Getenv("STORAGE_LOCAL_DIR"); v != "" {
		cfg.Storage.LocalDir = v
	}
	if v := os.Getenv("POKEMON_TCG_API_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("POKEMON_TCG_API_KEY"); v != "" {
		cfg.Catalog.APIKey = v
	}
	if v := os.Getenv("FEATURED_BASE_URL"); v != "" {
		cfg.Catalog.FeaturedBaseURL = v
	}
	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		cfg.Catalog.CacheDriver = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		cfg.Catalog.CacheTTLSeconds = atoiOr(cfg.Catalog.CacheTTLSeconds, v)
	}
	if v := os.Getenv("CACHE_CAPACITY"); v != "" {
		cfg.Catalog.CacheCapacity = atoiOr(cfg.Catalog.CacheCapacity, v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Catalog.RedisAddr = v
	}
	if v := os.Getenv("EVENTS_DRIVER"); v != "" {
		cfg.Events.Driver = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.Events.RabbitURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.KafkaBrokers = splitCommaList(v)
	}
	if v := os.Getenv("WORKER_INTERVAL_SECONDS"); v != "" {
		cfg.Worker.IntervalSeconds = atoi64Or(cfg.Worker.IntervalSeconds, v)
	}
	if v := os.Getenv("WORKER_STALE_AFTER_MINUTES"); v != "" {
		cfg.Worker.StaleAfterMinutes = atoiOr(cfg.Worker.StaleAfterMinutes, v)
	}
	if v := os.Getenv("TRACING_EXPORTER"); v != "" {
		cfg.Tracing.Exporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.OTLPEndpoint = v
	}
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
