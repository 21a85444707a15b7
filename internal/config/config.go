// Package config loads the mortar.yaml project file used by the CLI.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/aretw0/mortar/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when --config is not set.
const DefaultFile = "mortar.yaml"

type Config struct {
	Assets     string           `yaml:"assets"`
	Entry      EntryConfig      `yaml:"entry"`
	Typewriter TypewriterConfig `yaml:"typewriter"`
	Tick       time.Duration    `yaml:"tick"`
	LogLevel   string           `yaml:"log_level"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	HTTP       HTTPConfig       `yaml:"http"`
	Redis      RedisConfig      `yaml:"redis"`
}

// EntryConfig names the program and node a run starts from. An empty node
// means the first node of the program.
type EntryConfig struct {
	Path string `yaml:"path"`
	Node string `yaml:"node"`
}

type TypewriterConfig struct {
	// CPS is characters per second; 0 reveals text at once.
	CPS float64 `yaml:"cps"`
}

// SessionsConfig controls the file store and the snapshot middleware.
// Keys are base64 encoded 32 byte AES keys.
type SessionsConfig struct {
	Dir           string   `yaml:"dir"`
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// Redact lists regular expressions; matching variables are masked
	// before a snapshot is stored.
	Redact []string `yaml:"redact"`
}

// KeyEnv overrides sessions.encryption_key.
const KeyEnv = "MORTAR_SESSION_KEY"

// Keys decodes the active and fallback keys. A nil active key means
// encryption is off.
func (s SessionsConfig) Keys() ([]byte, [][]byte, error) {
	active := s.EncryptionKey
	if env := os.Getenv(KeyEnv); env != "" {
		active = env
	}
	if active == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("sessions.fallback_keys needs sessions.encryption_key")
		}
		return nil, nil, nil
	}
	key, err := decodeKey(active)
	if err != nil {
		return nil, nil, fmt.Errorf("sessions.encryption_key: %w", err)
	}
	fallback := make([][]byte, 0, len(s.FallbackKeys))
	for i, k := range s.FallbackKeys {
		b, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("sessions.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, b)
	}
	return key, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(b))
	}
	return b, nil
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig enables the Redis session store and locker when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Assets:     ".",
		Typewriter: TypewriterConfig{CPS: 40},
		Tick:       50 * time.Millisecond,
		LogLevel:   "info",
		Sessions:   SessionsConfig{Dir: ".mortar/sessions"},
		HTTP:       HTTPConfig{Addr: ":8080"},
		Redis:      RedisConfig{Prefix: "mortar:session:"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	def := Default()
	if strings.TrimSpace(c.Assets) == "" {
		c.Assets = def.Assets
	}
	if c.Tick == 0 {
		c.Tick = def.Tick
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Sessions.Dir == "" {
		c.Sessions.Dir = def.Sessions.Dir
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = def.Redis.Prefix
	}
}

func (c *Config) Validate() error {
	if c.Typewriter.CPS < 0 {
		return fmt.Errorf("typewriter.cps must not be negative: %v", c.Typewriter.CPS)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive: %v", c.Tick)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Entry.Node != "" && c.Entry.Path == "" {
		return fmt.Errorf("entry.node %q needs entry.path", c.Entry.Node)
	}
	if _, _, err := c.Sessions.Keys(); err != nil {
		return err
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative: %d", c.Redis.DB)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative: %v", c.Redis.TTL)
	}
	return nil
}
