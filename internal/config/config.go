package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mavwarf/cleartone/internal/paths"
	"github.com/Mavwarf/cleartone/internal/tone"
)

const (
	DefaultListen        = "127.0.0.1:8765"
	DefaultMaxDurationMs = 5 * 60 * 1000
	DefaultTopicPrefix   = "cleartone"
	DefaultClientID      = "cleartone"
	DefaultRetentionDays = 90
)

// ErrNotFound means no config file exists at any searched location.
var ErrNotFound = errors.New("no " + paths.ConfigFileName + " found")

// HTTPOptions configures the HTTP command transport.
type HTTPOptions struct {
	Listen      string   `json:"listen,omitempty"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
}

// MQTTOptions configures the MQTT command transport. An empty Broker
// disables it.
type MQTTOptions struct {
	Broker      string `json:"broker,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	QoS         byte   `json:"qos,omitempty"`
}

// Config holds process-wide settings. Calibration values apply to every
// request; nothing here is per-request.
type Config struct {
	SampleRate       int         `json:"sample_rate,omitempty"`
	MaxDB            float64     `json:"max_db,omitempty"`
	SafetyMargin     float64     `json:"safety_margin,omitempty"`
	MaxDurationMs    int         `json:"max_duration_ms,omitempty"`
	Log              bool        `json:"log,omitempty"`
	LogBackend       string      `json:"log_backend,omitempty"` // "sqlite" | "file"
	LogRetentionDays int         `json:"log_retention_days,omitempty"`
	HTTP             HTTPOptions `json:"http,omitempty"`
	MQTT             MQTTOptions `json:"mqtt,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	var c Config
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SampleRate = tone.DefaultSampleRate
	c.MaxDB = tone.MaxDB
	c.SafetyMargin = tone.SafetyMargin
	c.MaxDurationMs = DefaultMaxDurationMs
	c.LogRetentionDays = DefaultRetentionDays
	c.HTTP.Listen = DefaultListen
	c.MQTT.ClientID = DefaultClientID
	c.MQTT.TopicPrefix = DefaultTopicPrefix
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	c.setDefaults()
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// Calibration returns the dB reference described by c.
func (c Config) Calibration() tone.Calibration {
	return tone.Calibration{MaxDB: c.MaxDB, SafetyMargin: c.SafetyMargin}
}

// Validate rejects settings that would make generation fail for every
// request.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", c.SampleRate)
	}
	if err := c.Calibration().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxDurationMs < 0 {
		return fmt.Errorf("config: max_duration_ms must not be negative")
	}
	if _, err := tone.NumSamples(c.MaxDurationMs, c.SampleRate); err != nil {
		return fmt.Errorf("config: max_duration_ms: %w", err)
	}
	switch c.LogBackend {
	case "", "sqlite", "file":
	default:
		return fmt.Errorf("config: unknown log_backend %q", c.LogBackend)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// FindPath returns the config file that Load would read. It tries, in order:
//  1. explicitPath (if non-empty)
//  2. cleartone-config.json next to the running binary
//  3. the user data directory
func FindPath(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicitPath, nil
	}

	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), paths.ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	p := filepath.Join(paths.DataDir(), paths.ConfigFileName)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", ErrNotFound
}

// Load reads the config at FindPath(explicitPath). When no file exists
// and no explicit path was given, it returns Default().
func Load(explicitPath string) (Config, error) {
	p, err := FindPath(explicitPath)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return readConfig(p)
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
