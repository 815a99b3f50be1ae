// Package config loads the service configuration from an optional YAML file
// and environment variables. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rate limit backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Email providers.
const (
	ProviderLog    = "log"
	ProviderResend = "resend"
	ProviderGraph  = "graph"
)

// Graph holds the Microsoft Graph app registration used to send mail.
type Graph struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Sender       string
}

// Config contains runtime configuration required by the service.
type Config struct {
	Addr         string
	MaxBodyBytes int64

	RateLimitBackend string
	RateLimitWindow  time.Duration
	RateLimitMax     int
	SweepThreshold   int
	JanitorInterval  time.Duration
	RedisURL         string
	DBURL            string

	// An empty secret disables verification.
	RecaptchaSecret    string
	RecaptchaThreshold float64
	RecaptchaVerifyURL string

	EmailProvider      string
	FromEmail          string
	ContactEmail       string
	ResendAPIKey       string
	Graph              Graph
	EmailRatePerSecond float64
	EmailBurst         int

	// An empty token disables attachment upload.
	BlobToken   string
	BlobBaseURL string

	SiteName  string
	SitePhone string
	SiteEmail string
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Server struct {
		Addr         string `yaml:"addr"`
		MaxBodyBytes int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`
	RateLimit struct {
		Backend         string `yaml:"backend"`
		Window          string `yaml:"window"`
		Max             int    `yaml:"max"`
		SweepThreshold  int    `yaml:"sweep_threshold"`
		JanitorInterval string `yaml:"janitor_interval"`
		RedisURL        string `yaml:"redis_url"`
		DBURL           string `yaml:"db_url"`
	} `yaml:"rate_limit"`
	Recaptcha struct {
		SecretKey string   `yaml:"secret_key"`
		Threshold *float64 `yaml:"threshold"`
		VerifyURL string   `yaml:"verify_url"`
	} `yaml:"recaptcha"`
	Email struct {
		Provider      string  `yaml:"provider"`
		From          string  `yaml:"from"`
		To            string  `yaml:"to"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
		Resend        struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"resend"`
		Graph struct {
			TenantID     string `yaml:"tenant_id"`
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			Sender       string `yaml:"sender"`
		} `yaml:"graph"`
	} `yaml:"email"`
	Storage struct {
		BlobToken string `yaml:"blob_token"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"storage"`
	Site struct {
		Name  string `yaml:"name"`
		Phone string `yaml:"phone"`
		Email string `yaml:"email"`
	} `yaml:"site"`
}

// Load reads the YAML file at path (or CONFIG_PATH when path is empty),
// applies environment overrides and defaults, and validates the result.
// Running without any file is supported.
func Load(path string) (Config, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	}

	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if raw, err = parseFile(data); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	var p parser
	cfg := Config{
		Addr:         firstNonEmpty(env("LISTEN_ADDR"), raw.Server.Addr, ":8080"),
		MaxBodyBytes: p.integer64("MAX_BODY_BYTES", raw.Server.MaxBodyBytes, 32<<20),

		RateLimitBackend: strings.ToLower(firstNonEmpty(env("RATE_LIMIT_BACKEND"), raw.RateLimit.Backend, BackendMemory)),
		RateLimitWindow:  p.duration("RATE_LIMIT_WINDOW", raw.RateLimit.Window, time.Minute),
		RateLimitMax:     p.integer("RATE_LIMIT_MAX", raw.RateLimit.Max, 3),
		SweepThreshold:   p.integer("RATE_LIMIT_SWEEP_THRESHOLD", raw.RateLimit.SweepThreshold, 1000),
		JanitorInterval:  p.duration("RATE_LIMIT_JANITOR_INTERVAL", raw.RateLimit.JanitorInterval, 5*time.Minute),
		RedisURL:         firstNonEmpty(env("REDIS_URL"), raw.RateLimit.RedisURL),
		DBURL:            firstNonEmpty(env("DB_URL"), raw.RateLimit.DBURL),

		RecaptchaSecret:    firstNonEmpty(env("RECAPTCHA_SECRET_KEY"), raw.Recaptcha.SecretKey),
		RecaptchaThreshold: p.threshold("RECAPTCHA_THRESHOLD", raw.Recaptcha.Threshold, 0.5),
		RecaptchaVerifyURL: firstNonEmpty(env("RECAPTCHA_VERIFY_URL"), raw.Recaptcha.VerifyURL),

		EmailProvider: strings.ToLower(firstNonEmpty(env("EMAIL_PROVIDER"), raw.Email.Provider, ProviderLog)),
		FromEmail:     firstNonEmpty(env("FROM_EMAIL"), raw.Email.From, "noreply@baringconstruction.ph"),
		ContactEmail:  firstNonEmpty(env("CONTACT_EMAIL"), raw.Email.To, "baringcons@gmail.com"),
		ResendAPIKey:  firstNonEmpty(env("RESEND_API_KEY"), raw.Email.Resend.APIKey),
		Graph: Graph{
			TenantID:     firstNonEmpty(env("GRAPH_TENANT_ID"), raw.Email.Graph.TenantID),
			ClientID:     firstNonEmpty(env("GRAPH_CLIENT_ID"), raw.Email.Graph.ClientID),
			ClientSecret: firstNonEmpty(env("GRAPH_CLIENT_SECRET"), raw.Email.Graph.ClientSecret),
			Sender:       firstNonEmpty(env("GRAPH_SENDER"), raw.Email.Graph.Sender),
		},
		EmailRatePerSecond: p.number("EMAIL_RATE_PER_SECOND", raw.Email.RatePerSecond, 5),
		EmailBurst:         p.integer("EMAIL_BURST", raw.Email.Burst, 10),

		BlobToken:   firstNonEmpty(env("BLOB_READ_WRITE_TOKEN"), raw.Storage.BlobToken),
		BlobBaseURL: firstNonEmpty(env("BLOB_BASE_URL"), raw.Storage.BaseURL),

		SiteName:  firstNonEmpty(env("SITE_NAME"), raw.Site.Name, "Baring Construction Services"),
		SitePhone: firstNonEmpty(env("SITE_PHONE"), raw.Site.Phone),
		SiteEmail: firstNonEmpty(env("SITE_EMAIL"), raw.Site.Email),
	}
	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseFile(data []byte) (rawConfig, error) {
	// Expand ${VAR} references in the YAML
	expanded := []byte(os.ExpandEnv(string(data)))

	if err := validateDocument(expanded); err != nil {
		return rawConfig{}, err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(expanded, &raw); err != nil {
		return rawConfig{}, fmt.Errorf("parse YAML: %w", err)
	}
	return raw, nil
}

func (c Config) validate() error {
	var errs []error

	switch c.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required for the redis rate limit backend"))
		}
	case BackendPostgres:
		if c.DBURL == "" {
			errs = append(errs, errors.New("DB_URL required for the postgres rate limit backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be memory, redis or postgres, got %q", c.RateLimitBackend))
	}

	switch c.EmailProvider {
	case ProviderLog:
	case ProviderResend:
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY required for the resend email provider"))
		}
	case ProviderGraph:
		g := c.Graph
		if g.TenantID == "" || g.ClientID == "" || g.ClientSecret == "" || g.Sender == "" {
			errs = append(errs, errors.New("GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET and GRAPH_SENDER required for the graph email provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER must be log, resend or graph, got %q", c.EmailProvider))
	}

	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimitMax < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be at least 1"))
	}
	if c.RecaptchaThreshold < 0 || c.RecaptchaThreshold > 1 {
		errs = append(errs, errors.New("RECAPTCHA_THRESHOLD must be between 0 and 1"))
	}
	if c.EmailRatePerSecond <= 0 || c.EmailBurst < 1 {
		errs = append(errs, errors.New("EMAIL_RATE_PER_SECOND and EMAIL_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parser resolves numeric settings (env, then file, then default) and
// collects every malformed environment value.
type parser struct {
	errs []error
}

func (p *parser) fail(key, v string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, v, err))
}

func (p *parser) integer(key string, file, fallback int) int {
	if v := env(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
		}
		return n
	}
	if file != 0 {
		return file
	}
	return fallback
}

func (p *parser) integer64(key string, file, fallback int64) int64 {
	if v := env(key); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			p.fail(key, v, err)
		}
		return n
	}
	if file != 0 {
		return file
	}
	return fallback
}

func (p *parser) number(key string, file, fallback float64) float64 {
	if v := env(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
		}
		return f
	}
	if file != 0 {
		return file
	}
	return fallback
}

// threshold differs from number in that zero is a meaningful file value.
func (p *parser) threshold(key string, file *float64, fallback float64) float64 {
	if v := env(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
		}
		return f
	}
	if file != nil {
		return *file
	}
	return fallback
}

func (p *parser) duration(key, file string, fallback time.Duration) time.Duration {
	v := env(key)
	source := key
	if v == "" {
		v, source = strings.TrimSpace(file), "config file"
	}
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(source, v, err)
	}
	return d
}
