package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"recruitexport/internal/extract"
	"recruitexport/internal/luxid"
)

// PathEnv names the variable pointing at an optional YAML config file.
const PathEnv = "RECRUITEXPORT_CONFIG_PATH"

// Config defines exporter configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Events    EventsConfig    `yaml:"events"`
	Server    ServerConfig    `yaml:"server"`
	Export    ExportConfig    `yaml:"export"`
	Log       LogConfig       `yaml:"log"`
	S3        S3Config        `yaml:"s3"`
	WebDAV    WebDAVConfig    `yaml:"webdav"`
	Drive     DriveConfig     `yaml:"drive"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type APIConfig struct {
	BaseURL     string        `yaml:"base_url" env:"LUXID_API_BASE_URL"`
	Username    string        `yaml:"username" env:"LUXID_USERNAME"`
	Password    string        `yaml:"password" env:"LUXID_PASSWORD"`
	TokenTTL    time.Duration `yaml:"token_ttl" env:"LUXID_TOKEN_TTL"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"LUXID_HTTP_TIMEOUT"`
}

type EventsConfig struct {
	TypePolicy string `yaml:"type_policy" env:"EVENT_TYPE_POLICY"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`
}

type ExportConfig struct {
	CSVPath string `yaml:"csv_path" env:"EXPORT_CSV_PATH"`
	ICSPath string `yaml:"ics_path" env:"EXPORT_ICS_PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket" env:"S3_BUCKET"`
	Region   string `yaml:"region" env:"S3_REGION"`
	Endpoint string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Prefix   string `yaml:"prefix" env:"S3_PREFIX"`
}

type WebDAVConfig struct {
	Endpoint string `yaml:"endpoint" env:"WEBDAV_ENDPOINT"`
	Username string `yaml:"username" env:"WEBDAV_USERNAME"`
	Password string `yaml:"password" env:"WEBDAV_PASSWORD"`
	Dir      string `yaml:"dir" env:"WEBDAV_DIR"`
}

type DriveConfig struct {
	Account      string `yaml:"account" env:"GOOGLE_DRIVE_ACCOUNT"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	FolderID     string `yaml:"folder_id" env:"GOOGLE_DRIVE_FOLDER_ID"`
}

type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	Enabled  bool   `yaml:"enabled" env:"OTEL_ENABLED"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:  luxid.DefaultBaseURL,
			TokenTTL: luxid.DefaultTokenTTL,
		},
		Events: EventsConfig{
			TypePolicy: string(extract.PolicyStrict),
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Export: ExportConfig{
			CSVPath: "participants.csv",
			ICSPath: "events.ics",
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(PathEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate reports every setting that prevents talking to the recruitment API.
func (c Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("LUXID_API_BASE_URL must not be empty"))
	}
	if c.API.Username == "" || c.API.Password == "" {
		errs = append(errs, errors.New("LUXID_USERNAME and LUXID_PASSWORD are required"))
	}
	if c.API.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("LUXID_TOKEN_TTL must be positive, got %s", c.API.TokenTTL))
	}
	if c.API.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("LUXID_HTTP_TIMEOUT must not be negative, got %s", c.API.HTTPTimeout))
	}
	if _, err := extract.ParsePolicy(c.Events.TypePolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Export.CSVPath == "" {
		errs = append(errs, errors.New("EXPORT_CSV_PATH must not be empty"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
