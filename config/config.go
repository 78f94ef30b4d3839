package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/sink"
)

// Config contains SDK common configuration
type Config struct {
	// Logger log instance, if nil will use default nop logger
	Logger *zap.Logger
	// Debug whether to enable debug mode
	Debug bool
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Logger: zap.NewNop(), // default use nop logger
		Debug:  false,
	}
}

// NewDebugConfig returns configuration with debug mode enabled
func NewDebugConfig() *Config {
	debugLogger, err := zap.NewDevelopment()
	if err != nil {
		// If creation fails, use nop logger
		debugLogger = zap.NewNop()
	}

	return &Config{
		Logger: debugLogger,
		Debug:  true,
	}
}

// WithLogger sets custom logger
func (c *Config) WithLogger(logger *zap.Logger) *Config {
	c.Logger = logger
	return c
}

// WithProductionLogger sets production environment logger
func (c *Config) WithProductionLogger() *Config {
	logger, err := zap.NewProduction()
	if err != nil {
		c.Logger = zap.NewNop()
	} else {
		c.Logger = logger
	}
	return c
}

// WithDevelopmentLogger sets debug logger
func (c *Config) WithDevelopmentLogger() *Config {
	devLogger, err := zap.NewDevelopment()
	if err != nil {
		return c
	}
	c.Logger = devLogger
	c.Debug = true
	return c
}

// GetLogger gets logger instance
func (c *Config) GetLogger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Defaults applied by NewClientConfig when the corresponding option is unset
const (
	// DefaultCallTimeoutMS bounded per-call timeout; a hung endpoint must
	// abort the pipeline rather than block it forever
	DefaultCallTimeoutMS = 30000
)

// ClientConfig describes one vSphere endpoint and how the SDK talks to it.
// All fields are loadable from YAML, TOML or JSON files.
type ClientConfig struct {
	// Endpoint SOAP endpoint URL, e.g. https://vcenter.local/sdk
	Endpoint string `yaml:"endpoint" toml:"endpoint" json:"endpoint"`
	// Username login user name
	Username string `yaml:"username" toml:"username" json:"username"`
	// Password login password
	Password string `yaml:"password" toml:"password" json:"password"`
	// InsecureSkipVerify disables TLS certificate verification when true;
	// default is strict verification
	InsecureSkipVerify bool `yaml:"insecure-skip-verify,omitempty" toml:"insecure-skip-verify,omitempty" json:"insecure-skip-verify,omitempty"`
	// MinCallIntervalMS minimum spacing in milliseconds between the start
	// times of successive transport calls, 0 disables pacing
	MinCallIntervalMS int64 `yaml:"min-call-interval-ms,omitempty" toml:"min-call-interval-ms,omitempty" json:"min-call-interval-ms,omitempty"`
	// CallTimeoutMS per-call timeout in milliseconds
	CallTimeoutMS int64 `yaml:"call-timeout-ms,omitempty" toml:"call-timeout-ms,omitempty" json:"call-timeout-ms,omitempty"`
	// Parallelism fan-out width for per-object metric discovery;
	// 0 or 1 keeps the strictly sequential baseline
	Parallelism int `yaml:"parallelism,omitempty" toml:"parallelism,omitempty" json:"parallelism,omitempty"`
	// Output default per-call diagnostic output flags
	Output common.OutputOptions `yaml:"output,omitempty" toml:"output,omitempty" json:"output,omitempty"`
	// Sink optional telemetry sink storage configuration
	Sink *sink.ProviderConfig `yaml:"sink,omitempty" toml:"sink,omitempty" json:"sink,omitempty"`
}

// NewClientConfig creates a ClientConfig with default values
func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		CallTimeoutMS: DefaultCallTimeoutMS,
	}
}

// WithEndpoint sets the SOAP endpoint URL
func (c *ClientConfig) WithEndpoint(endpoint string) *ClientConfig {
	c.Endpoint = endpoint
	return c
}

// WithCredentials sets the login credentials
func (c *ClientConfig) WithCredentials(username, password string) *ClientConfig {
	c.Username = username
	c.Password = password
	return c
}

// WithInsecureSkipVerify disables TLS certificate verification
func (c *ClientConfig) WithInsecureSkipVerify(skip bool) *ClientConfig {
	c.InsecureSkipVerify = skip
	return c
}

// WithMinCallInterval sets the minimum spacing between transport calls
func (c *ClientConfig) WithMinCallInterval(d time.Duration) *ClientConfig {
	c.MinCallIntervalMS = d.Milliseconds()
	return c
}

// WithCallTimeout sets the per-call timeout
func (c *ClientConfig) WithCallTimeout(d time.Duration) *ClientConfig {
	c.CallTimeoutMS = d.Milliseconds()
	return c
}

// WithParallelism sets the metric discovery fan-out width
func (c *ClientConfig) WithParallelism(n int) *ClientConfig {
	c.Parallelism = n
	return c
}

// WithOutput sets the default per-call output flags
func (c *ClientConfig) WithOutput(opts common.OutputOptions) *ClientConfig {
	c.Output = opts
	return c
}

// WithSink sets the telemetry sink storage configuration
func (c *ClientConfig) WithSink(cfg *sink.ProviderConfig) *ClientConfig {
	c.Sink = cfg
	return c
}

// MinCallInterval returns the configured pacing interval as a duration
func (c *ClientConfig) MinCallInterval() time.Duration {
	return time.Duration(c.MinCallIntervalMS) * time.Millisecond
}

// CallTimeout returns the configured per-call timeout as a duration
func (c *ClientConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}

// Validate checks the configuration before any network use. Every failure
// wraps common.ErrConfig.
func (c *ClientConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", common.ErrConfig)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid endpoint URL %q", common.ErrConfig, c.Endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported endpoint scheme %q", common.ErrConfig, u.Scheme)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", common.ErrConfig)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", common.ErrConfig)
	}
	if c.MinCallIntervalMS < 0 {
		return fmt.Errorf("%w: min-call-interval-ms cannot be negative", common.ErrConfig)
	}
	if c.CallTimeoutMS <= 0 {
		return fmt.Errorf("%w: call-timeout-ms must be positive", common.ErrConfig)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism cannot be negative", common.ErrConfig)
	}
	return nil
}

// LoadClientConfig reads a ClientConfig from a YAML, TOML or JSON file,
// keyed on the file extension
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file: %v", common.ErrConfig, err)
	}

	cfg := NewClientConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing YAML config: %v", common.ErrConfig, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing TOML config: %v", common.ErrConfig, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing JSON config: %v", common.ErrConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file extension %q", common.ErrConfig, filepath.Ext(path))
	}

	if cfg.CallTimeoutMS == 0 {
		cfg.CallTimeoutMS = DefaultCallTimeoutMS
	}
	return cfg, nil
}
