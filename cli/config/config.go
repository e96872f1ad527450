package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/sigbench/types"
)

// Config represents a sigbench.yaml file. Every value is optional and acts
// as a default for command flags; flags always override.
type Config struct {
	Protocol         string   `yaml:"protocol"`
	Scheme           string   `yaml:"scheme"`
	Addr             string   `yaml:"addr"`
	MetricsAddr      string   `yaml:"metrics_addr"`
	PayloadSize      int      `yaml:"payload_size"`
	ChunkSize        int      `yaml:"chunk_size"`
	MaxSignatureSize int      `yaml:"max_signature_size"`
	SampleInterval   Duration `yaml:"sample_interval"`
	DrainTimeout     Duration `yaml:"drain_timeout"`
	CloseTimeout     Duration `yaml:"close_timeout"`
	KeysDir          string   `yaml:"keys_dir"`
	LogLevel         string   `yaml:"log_level"`
	RecordOut        string   `yaml:"record_out"`
	Report           string   `yaml:"report"`

	TLS     TLSConfig     `yaml:"tls"`
	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// TLSConfig holds certificate material. Empty cert and key select an
// ephemeral self-signed certificate.
type TLSConfig struct {
	Cert       string `yaml:"cert"`
	Key        string `yaml:"key"`
	ServerName string `yaml:"server_name"`
	Insecure   bool   `yaml:"insecure"`
}

// StorageConfig holds record storage defaults.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
	WriteCSV    bool   `yaml:"write_csv"`
}

// AdapterConfig holds completion notification defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	// Retries is a pointer so an explicit 0 is distinct from unset.
	Retries *int `yaml:"retries,omitempty"`
	// Secret signs webhook bodies.
	Secret string `yaml:"secret,omitempty"`
	// HistoryKey and HistoryLen keep recent redis events in a list.
	HistoryKey string `yaml:"history_key,omitempty"`
	HistoryLen int64  `yaml:"history_len,omitempty"`
}

// Duration wraps time.Duration for YAML strings such as "10s" or "150ms".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string. An empty string leaves d zero.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks enumerated values. Zero values are always accepted.
func (c *Config) Validate() error {
	if c.Protocol != "" {
		if _, err := types.ParseProtocol(c.Protocol); err != nil {
			return err
		}
	}
	if c.Scheme != "" {
		if _, err := types.ParseScheme(c.Scheme); err != nil {
			return err
		}
	}
	if c.PayloadSize < 0 || c.ChunkSize < 0 || c.MaxSignatureSize < 0 {
		return fmt.Errorf("sizes must be >= 0")
	}
	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		return fmt.Errorf("storage.backend must be fs or s3, got %q", c.Storage.Backend)
	}
	switch c.Adapter.Type {
	case "", "redis", "webhook":
	default:
		return fmt.Errorf("adapter.type must be redis or webhook, got %q", c.Adapter.Type)
	}
	if c.Adapter.HistoryLen < 0 {
		return fmt.Errorf("adapter.history_len must be >= 0, got %d", c.Adapter.HistoryLen)
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries)
	}
	return nil
}
