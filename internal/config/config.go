package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
)

// Config represents the application configuration for the CLI and HTTP server.
// The conversion core never reads it directly; commands translate it into
// component options.
type Config struct {
	GitHub    GitHubConfig    `yaml:"github"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Transform TransformConfig `yaml:"transform"`
	Output    OutputConfig    `yaml:"output"`
	S3        S3Config        `yaml:"s3,omitempty"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// GitHubConfig configures the content API client.
type GitHubConfig struct {
	APIURL    string `yaml:"api_url"`
	CloneURL  string `yaml:"clone_url"`
	Token     string `yaml:"token,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
	Timeout   string `yaml:"timeout"`
}

// SourceKind selects the content source implementation.
type SourceKind string

const (
	SourceAPI SourceKind = "api"
	SourceGit SourceKind = "git"
)

// FetchConfig controls tree listing concurrency and retry behavior.
type FetchConfig struct {
	Source        SourceKind       `yaml:"source"`
	Concurrency   int              `yaml:"concurrency"`
	MaxAttempts   int              `yaml:"max_attempts"`
	RetryBackoff  RetryBackoffMode `yaml:"retry_backoff"`
	RetryUnit     string           `yaml:"retry_unit"`
	RetryMaxDelay string           `yaml:"retry_max_delay"`
}

// TransformConfig controls artifact synthesis.
type TransformConfig struct {
	MaxStyleFiles  int    `yaml:"max_style_files"`
	MaxMarkupFiles int    `yaml:"max_markup_files"`
	Author         string `yaml:"author"`
}

// OutputKind selects the packager.
type OutputKind string

const (
	OutputDirectory OutputKind = "dir"
	OutputZip       OutputKind = "zip"
	OutputS3        OutputKind = "s3"
)

// OutputConfig represents output configuration.
type OutputConfig struct {
	Kind      OutputKind `yaml:"kind"`
	Directory string     `yaml:"directory"`
}

// S3Config configures the object store packager.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address        string `yaml:"address"`
	EnableMetrics  bool   `yaml:"enable_metrics"`
	RequestTimeout string `yaml:"request_timeout"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text|json
}

// MaxFetchAttempts caps fetch.max_attempts.
const MaxFetchAttempts = 20

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:    "https://api.github.com",
			CloneURL:  "https://github.com",
			UserAgent: "TailZen/1.0",
			Timeout:   "30s",
		},
		Fetch: FetchConfig{
			Source:        SourceAPI,
			Concurrency:   4,
			MaxAttempts:   3,
			RetryBackoff:  RetryBackoffLinear,
			RetryUnit:     "1s",
			RetryMaxDelay: "10s",
		},
		Transform: TransformConfig{
			MaxStyleFiles:  5,
			MaxMarkupFiles: 3,
			Author:         "TailZen",
		},
		Output: OutputConfig{
			Kind:      OutputDirectory,
			Directory: "./themes",
		},
		Server: ServerConfig{
			Address:        ":8080",
			EnableMetrics:  true,
			RequestTimeout: "2m",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path. A missing file yields Default() with
// environment overrides applied; any other read or parse failure is returned.
func Load(path string) (*Config, error) {
	if _, err := loadEnvFiles(); err != nil {
		return nil, derrors.ConfigError("failed to load .env file").WithCause(err).Build()
	}

	cfg := Default()
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator.
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, derrors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", path).
			Build()
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, derrors.ConfigError("failed to parse config file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	}

	applyEnv(cfg)
	cfg.Fetch.RetryBackoff = NormalizeRetryBackoff(string(cfg.Fetch.RetryBackoff))
	if cfg.Fetch.RetryBackoff == "" {
		cfg.Fetch.RetryBackoff = RetryBackoffLinear
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and duration formats.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.GitHub.APIURL) == "" {
		problems = append(problems, "github.api_url is required")
	}
	switch c.Fetch.Source {
	case SourceAPI, "":
	case SourceGit:
		if strings.TrimSpace(c.GitHub.CloneURL) == "" {
			problems = append(problems, "github.clone_url is required for fetch.source=git")
		}
	default:
		problems = append(problems, fmt.Sprintf("fetch.source: unsupported value %q", c.Fetch.Source))
	}
	if c.Fetch.Concurrency < 1 {
		problems = append(problems, "fetch.concurrency must be >= 1")
	}
	if c.Fetch.MaxAttempts < 1 || c.Fetch.MaxAttempts > MaxFetchAttempts {
		problems = append(problems, fmt.Sprintf("fetch.max_attempts must be between 1 and %d", MaxFetchAttempts))
	}
	if c.Transform.MaxStyleFiles < 0 || c.Transform.MaxMarkupFiles < 0 {
		problems = append(problems, "transform caps cannot be negative")
	}
	for field, raw := range map[string]string{
		"github.timeout":         c.GitHub.Timeout,
		"fetch.retry_unit":       c.Fetch.RetryUnit,
		"fetch.retry_max_delay":  c.Fetch.RetryMaxDelay,
		"server.request_timeout": c.Server.RequestTimeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid duration %q", field, raw))
		}
	}
	switch c.Output.Kind {
	case OutputDirectory, OutputZip:
	case OutputS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			problems = append(problems, "s3.endpoint and s3.bucket are required for output.kind=s3")
		}
	default:
		problems = append(problems, fmt.Sprintf("output.kind: unsupported value %q", c.Output.Kind))
	}
	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return derrors.ValidationError("invalid configuration: " + strings.Join(problems, "; ")).Build()
}

// HTTPTimeout returns the parsed GitHub client timeout (30s when unset).
func (c *Config) HTTPTimeout() time.Duration {
	return parseDurationOr(c.GitHub.Timeout, 30*time.Second)
}

// RetryUnit returns the backoff unit (1s when unset).
func (c *Config) RetryUnit() time.Duration {
	return parseDurationOr(c.Fetch.RetryUnit, time.Second)
}

// RetryMaxDelay returns the backoff cap (10s when unset).
func (c *Config) RetryMaxDelay() time.Duration {
	return parseDurationOr(c.Fetch.RetryMaxDelay, 10*time.Second)
}

// RequestTimeout returns the per-request conversion timeout of the HTTP server.
func (c *Config) RequestTimeout() time.Duration {
	return parseDurationOr(c.Server.RequestTimeout, 2*time.Minute)
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return derrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Default()
	example.GitHub.Token = "${GITHUB_TOKEN}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return derrors.InternalError("failed to marshal config").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return derrors.FileSystemError("failed to write config file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}

func parseDurationOr(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
