package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"

	"github.com/docsmith-dev/docsmith/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "docsmith.json"

	// DefaultPort is the default preview server port.
	DefaultPort = 3000

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultSource is the default source directory.
	DefaultSource = "docs"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "site"

	// DefaultNotFoundPage is the 404 document served when none is configured.
	DefaultNotFoundPage = "404.html"
)

// Config represents the complete docsmith.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Language is the locale the site is rendered in, as a BCP 47 tag.
	// When set, the site root redirects to /{language}/index.html and
	// the 404 document is resolved inside the locale subdirectory.
	Language string `json:"language,omitempty"`

	// Source is the directory containing the document sources.
	Source string `json:"source,omitempty"`

	// Output is the directory the build command renders into.
	Output string `json:"output,omitempty"`

	// NotFoundPage is the document served for unmatched paths,
	// relative to the (locale-specific) output directory.
	NotFoundPage string `json:"notFoundPage,omitempty"`

	// Build contains build command configuration.
	Build BuildConfig `json:"build,omitempty"`

	// Serve contains preview server configuration.
	Serve ServeConfig `json:"serve,omitempty"`

	// Deploy contains deployment configuration.
	Deploy DeployConfig `json:"deploy,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// BuildConfig contains build command configuration.
type BuildConfig struct {
	// Command is the external command that renders the document set.
	Command string `json:"command,omitempty"`

	// Args are additional arguments passed to the command.
	Args []string `json:"args,omitempty"`

	// Ignore patterns are excluded from change watching (globs or
	// path segments, matched against source paths).
	Ignore []string `json:"ignore,omitempty"`
}

// ServeConfig contains preview server settings.
type ServeConfig struct {
	// Port is the port to run the preview server on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// OpenBrowser opens the browser automatically on start.
	OpenBrowser bool `json:"openBrowser,omitempty"`

	// MetricsAddr, when set, exposes Prometheus metrics on a
	// separate listener (e.g. "localhost:9091").
	MetricsAddr string `json:"metricsAddr,omitempty"`
}

// DeployConfig contains S3 deployment settings.
type DeployConfig struct {
	// Bucket is the S3 bucket to deploy into.
	Bucket string `json:"bucket,omitempty"`

	// Region is the AWS region of the bucket.
	Region string `json:"region,omitempty"`

	// Prefix is the key prefix for uploaded objects.
	Prefix string `json:"prefix,omitempty"`
}

// envOverrides are environment variables applied on top of docsmith.json.
type envOverrides struct {
	Port        int    `env:"DOCSMITH_PORT"`
	Host        string `env:"DOCSMITH_HOST"`
	Output      string `env:"DOCSMITH_OUTPUT"`
	Language    string `env:"DOCSMITH_LANGUAGE"`
	MetricsAddr string `env:"DOCSMITH_METRICS_ADDR"`
}

// New creates a configuration with default values.
func New() *Config {
	return &Config{
		Source:       DefaultSource,
		Output:       DefaultOutput,
		NotFoundPage: DefaultNotFoundPage,
		Serve: ServeConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for docsmith.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFromWorkingDir reads configuration from the current directory.
func LoadFromWorkingDir() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E001").
				WithDetail("no %s found in %s", ConfigFileName, filepath.Dir(path))
		}
		return nil, errors.New("E002").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E002").Wrap(err)
	}

	cfg.configPath = path
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// SourcePath returns the absolute path of the source directory.
func (c *Config) SourcePath() string {
	return c.resolve(c.Source)
}

// OutputPath returns the absolute path of the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Output)
}

// Address returns the host:port string the preview server binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Serve.Host, strconv.Itoa(c.Serve.Port))
}

// URL returns the preview server URL.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// applyEnv applies DOCSMITH_* environment overrides.
func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return errors.New("E004").Wrap(err)
	}

	if overrides.Port != 0 {
		c.Serve.Port = overrides.Port
	}
	if overrides.Host != "" {
		c.Serve.Host = overrides.Host
	}
	if overrides.Output != "" {
		c.Output = overrides.Output
	}
	if overrides.Language != "" {
		c.Language = overrides.Language
	}
	if overrides.MetricsAddr != "" {
		c.Serve.MetricsAddr = overrides.MetricsAddr
	}
	return nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.NotFoundPage == "" {
		c.NotFoundPage = DefaultNotFoundPage
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
}

// validate checks fields that cannot be defaulted away.
func (c *Config) validate() error {
	if c.Language == "" {
		return nil
	}
	if _, err := language.Parse(c.Language); err != nil {
		return errors.New("E003").
			WithDetail("language %q: %v", c.Language, err)
	}
	return nil
}

// resolve turns a config-relative path into an absolute path.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}
