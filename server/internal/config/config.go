package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultGRPCPort       = 50051
	DefaultStreamInterval = 5 * time.Second
	DefaultPollInterval   = time.Minute
	DefaultSourceTimeout  = 10 * time.Second
	DefaultNotifyTimeout  = 10 * time.Second
	DefaultJournalSize    = 200
	DefaultAPIKeyHeader   = "x-api-key"
)

// Config is the full alertdesk server configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Source        SourceConfig        `yaml:"source"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Journal       JournalConfig       `yaml:"journal"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, /metrics and the WebSocket stream
	// listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// GRPCPort is the port of the gRPC health service. 0 disables it.
	GRPCPort int `yaml:"grpc_port"`

	// Auth protects mutating REST endpoints.
	Auth AuthConfig `yaml:"auth"`

	// CORS lists the browser origins allowed to call the API.
	CORS CORSConfig `yaml:"cors"`

	// StreamInterval is how often the dashboard stream pushes a snapshot
	// even when nothing changed (default 5s).
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// AuthConfig controls REST API authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header carrying the key (default "x-api-key").
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAPIKeyHeader
}

// CORSConfig configures cross-origin access for the dashboard.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SourceConfig describes where alerts are ingested from.
type SourceConfig struct {
	// Type is one of: http | pagerduty | fixture.
	Type string `yaml:"type"`

	// Endpoint is the URL of the alert API (http) or an optional API base
	// URL override (pagerduty).
	Endpoint string `yaml:"endpoint"`

	// Interval is the polling period (default 1m).
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds one fetch (default 10s).
	Timeout time.Duration `yaml:"timeout"`

	Auth      SourceAuthConfig `yaml:"auth"`
	TLS       TLSConfig        `yaml:"tls"`
	PagerDuty PagerDutyConfig  `yaml:"pagerduty"`
	Fixture   FixtureConfig    `yaml:"fixture"`
}

// SourceAuthConfig specifies how the http source authenticates.
type SourceAuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mtls
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// apikey
	Header string `yaml:"header"`
	KeyEnv string `yaml:"key_env"`

	// bearer
	TokenEnv string `yaml:"token_env"`

	// basic
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key resolved from the environment.
func (a SourceAuthConfig) Key() string { return env(a.KeyEnv) }

// Token returns the bearer token resolved from the environment.
func (a SourceAuthConfig) Token() string { return env(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a SourceAuthConfig) Password() string { return env(a.PasswordEnv) }

// TLSConfig holds TLS dial options for the http source.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification. Development only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// PagerDutyConfig configures the pagerduty source.
type PagerDutyConfig struct {
	// TokenEnv names the environment variable holding the REST API token.
	TokenEnv string `yaml:"token_env"`

	TeamIDs    []string `yaml:"team_ids"`
	ServiceIDs []string `yaml:"service_ids"`

	// Statuses limits the incident statuses listed
	// (default triggered, acknowledged).
	Statuses []string `yaml:"statuses"`
}

// Token returns the PagerDuty API token resolved from the environment.
func (p PagerDutyConfig) Token() string { return env(p.TokenEnv) }

// FixtureConfig configures the fixture source.
type FixtureConfig struct {
	// Path is a YAML file holding a list of alerts.
	Path string `yaml:"path"`
}

// NotificationsConfig configures acknowledgment notifications.
type NotificationsConfig struct {
	// Timeout bounds one webhook POST (default 10s).
	Timeout time.Duration `yaml:"timeout"`

	// Timezone is the IANA zone used to format timestamps in messages
	// (default UTC).
	Timezone string `yaml:"timezone"`

	// Default is the fallback webhook used when no team binding matches.
	Default WebhookConfig `yaml:"default"`

	// Webhooks are the per-team bindings registered at startup and on every
	// config reload.
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// Location resolves Timezone.
func (n NotificationsConfig) Location() (*time.Location, error) {
	if n.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(n.Timezone)
}

// WebhookConfig is one team → webhook binding. Team is ignored for the
// default binding.
type WebhookConfig struct {
	Team string `yaml:"team"`

	// URLEnv names the environment variable holding the webhook URL. Chat
	// webhook URLs embed credentials, so this is the preferred form.
	URLEnv string `yaml:"url_env"`

	// URL is a literal webhook URL, used only when URLEnv is empty.
	URL string `yaml:"url"`
}

// ResolveURL returns the webhook URL from URLEnv, falling back to URL.
func (w WebhookConfig) ResolveURL() string {
	if w.URLEnv != "" {
		return os.Getenv(w.URLEnv)
	}
	return w.URL
}

// JournalConfig sizes the notification history.
type JournalConfig struct {
	Size int `yaml:"size"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			GRPCPort:       DefaultGRPCPort,
			StreamInterval: DefaultStreamInterval,
		},
		Source: SourceConfig{
			Type:     "http",
			Interval: DefaultPollInterval,
			Timeout:  DefaultSourceTimeout,
		},
		Notifications: NotificationsConfig{
			Timeout: DefaultNotifyTimeout,
		},
		Journal: JournalConfig{
			Size: DefaultJournalSize,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.StreamInterval <= 0 {
		return fmt.Errorf("server.stream_interval must be positive")
	}

	src := cfg.Source
	switch src.Type {
	case "http":
		if src.Endpoint == "" {
			return fmt.Errorf("source.endpoint is required for type http")
		}
	case "pagerduty":
		if src.PagerDuty.TokenEnv == "" {
			return fmt.Errorf("source.pagerduty.token_env is required for type pagerduty")
		}
	case "fixture":
		if src.Fixture.Path == "" {
			return fmt.Errorf("source.fixture.path is required for type fixture")
		}
	default:
		return fmt.Errorf("source.type %q unknown: want http|pagerduty|fixture", src.Type)
	}
	switch src.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("source.auth.mode %q unknown", src.Auth.Mode)
	}
	if src.Auth.Mode == "apikey" && src.Auth.Header == "" {
		return fmt.Errorf("source.auth.header is required for mode apikey")
	}
	if src.Interval <= 0 {
		return fmt.Errorf("source.interval must be positive")
	}
	if src.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}

	if cfg.Notifications.Timeout <= 0 {
		return fmt.Errorf("notifications.timeout must be positive")
	}
	if _, err := cfg.Notifications.Location(); err != nil {
		return fmt.Errorf("notifications.timezone: %w", err)
	}
	for i, wh := range cfg.Notifications.Webhooks {
		if wh.Team == "" {
			return fmt.Errorf("notifications.webhooks[%d]: team is required", i)
		}
		if wh.URLEnv == "" && wh.URL == "" {
			return fmt.Errorf("notifications.webhooks[%d] %q: url_env or url is required", i, wh.Team)
		}
	}

	if cfg.Journal.Size <= 0 {
		return fmt.Errorf("journal.size must be positive")
	}
	return nil
}

func env(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
