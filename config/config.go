// Package config loads YAML configuration for enet endpoints and maps it
// onto transport options and payload transforms.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/opd-ai/enet/compress"
	"github.com/opd-ai/enet/crypto"
	"github.com/opd-ai/enet/logging"
	"github.com/opd-ai/enet/transport"
)

// DefaultAddress is the endpoint address used when none is configured.
const DefaultAddress = "127.0.0.1:9000"

// Config is the top-level configuration file.
type Config struct {
	Verbosity int             `yaml:"verbosity"`
	TCP       EndpointConfig  `yaml:"tcp"`
	UDP       EndpointConfig  `yaml:"udp"`
	Transform TransformConfig `yaml:"transform"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// EndpointConfig holds the settings of one transport.
type EndpointConfig struct {
	Address           string        `yaml:"address"`
	ReadBufferSize    int           `yaml:"readBufferSize"`
	SocketReadBuffer  int           `yaml:"socketReadBuffer"`
	SocketWriteBuffer int           `yaml:"socketWriteBuffer"`
	DialTimeout       time.Duration `yaml:"dialTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
}

// TransformConfig selects how payloads are compressed and sealed. An empty
// passphrase disables encryption.
type TransformConfig struct {
	Compression string `yaml:"compression"`
	Cipher      string `yaml:"cipher"`
	Passphrase  string `yaml:"passphrase"`
	Salt        string `yaml:"salt"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		Verbosity: logging.Errors,
		TCP: EndpointConfig{
			Address:        DefaultAddress,
			ReadBufferSize: transport.DefaultReadBufferSize,
			DialTimeout:    transport.DefaultDialTimeout,
		},
		UDP: EndpointConfig{
			Address:        DefaultAddress,
			ReadBufferSize: transport.DefaultDatagramSize,
			DialTimeout:    transport.DefaultDialTimeout,
		},
		Transform: TransformConfig{
			Compression: compress.AlgorithmNone.String(),
			Cipher:      crypto.SuiteSecretBox.String(),
		},
		Metrics: MetricsConfig{
			Address: "127.0.0.1:9100",
		},
	}
}

// Load reads and validates the file at path. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c to path, creating the parent directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o600), "write config")
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Verbosity < logging.Silent || c.Verbosity > logging.Verbose {
		return errors.Errorf("verbosity %d out of range %d..%d", c.Verbosity, logging.Silent, logging.Verbose)
	}
	if err := c.TCP.validate("tcp"); err != nil {
		return err
	}
	if err := c.UDP.validate("udp"); err != nil {
		return err
	}
	if _, err := compress.ParseAlgorithm(c.Transform.Compression); err != nil {
		return errors.Wrap(err, "transform.compression")
	}
	if _, err := crypto.ParseSuite(c.Transform.Cipher); err != nil {
		return errors.Wrap(err, "transform.cipher")
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return errors.New("metrics.address is required when metrics are enabled")
	}
	return nil
}

func (e EndpointConfig) validate(section string) error {
	switch {
	case e.ReadBufferSize < 0:
		return errors.Errorf("%s.readBufferSize must not be negative", section)
	case e.SocketReadBuffer < 0 || e.SocketWriteBuffer < 0:
		return errors.Errorf("%s socket buffers must not be negative", section)
	case e.DialTimeout < 0 || e.WriteTimeout < 0:
		return errors.Errorf("%s timeouts must not be negative", section)
	}
	return nil
}

// TCPOptions returns transport options for the TCP section.
func (c *Config) TCPOptions(log *logging.Logger, metrics *transport.Metrics) *transport.Options {
	return c.TCP.options(log, metrics)
}

// UDPOptions returns transport options for the UDP section.
func (c *Config) UDPOptions(log *logging.Logger, metrics *transport.Metrics) *transport.Options {
	return c.UDP.options(log, metrics)
}

func (e EndpointConfig) options(log *logging.Logger, metrics *transport.Metrics) *transport.Options {
	return &transport.Options{
		ReadBufferSize:    e.ReadBufferSize,
		SocketReadBuffer:  e.SocketReadBuffer,
		SocketWriteBuffer: e.SocketWriteBuffer,
		DialTimeout:       e.DialTimeout,
		WriteTimeout:      e.WriteTimeout,
		Logger:            log,
		Metrics:           metrics,
	}
}

// Algorithm returns the configured compression algorithm.
func (t TransformConfig) Algorithm() (compress.Algorithm, error) {
	return compress.ParseAlgorithm(t.Compression)
}

// NewCipher returns the configured cipher, or nil when no passphrase is set.
func (t TransformConfig) NewCipher() (*crypto.Cipher, error) {
	if t.Passphrase == "" {
		return nil, nil
	}
	suite, err := crypto.ParseSuite(t.Cipher)
	if err != nil {
		return nil, err
	}
	var salt []byte
	if t.Salt != "" {
		salt = []byte(t.Salt)
	}
	return crypto.NewCipher(t.Passphrase, suite, salt)
}
