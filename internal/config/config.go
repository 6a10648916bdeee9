package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Aliases           map[string]string `yaml:"aliases,omitempty"`
	Theme             string            `yaml:"theme"`
	Token             string            `yaml:"token,omitempty"`
	APIURL            string            `yaml:"api_url"`
	UploadProxyURL    string            `yaml:"upload_proxy_url,omitempty"`
	LogFile           string            `yaml:"log_file,omitempty"`
	LogMode           string            `yaml:"log_mode"`
	AllowedExtensions []string          `yaml:"allowed_extensions"`
	PollInterval      time.Duration     `yaml:"poll_interval"`
	HistorySize       int               `yaml:"history_size"`
	UploadConcurrency int               `yaml:"upload_concurrency"`
	MaxMemoryBufferMB int               `yaml:"max_memory_buffer_mb"`
}

const (
	DefaultMaxMemoryBufferMB = 100 // 100MB
	DefaultPollInterval      = 3 * time.Second
	DefaultUploadConcurrency = 3
)

func Default() *Config {
	return &Config{
		Theme:             "auto",
		APIURL:            "http://localhost:8080",
		LogMode:           "development",
		AllowedExtensions: []string{".pdf", ".png", ".jpg", ".jpeg"},
		PollInterval:      DefaultPollInterval,
		HistorySize:       1000,
		UploadConcurrency: DefaultUploadConcurrency,
		MaxMemoryBufferMB: DefaultMaxMemoryBufferMB,
		Aliases:           make(map[string]string),
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".genai-shell"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// LogPath returns log_file, or ~/.genai-shell/genai.log when unset
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "genai.log")
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		path = ""
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path (a missing file yields the defaults) and
// applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GENAI_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("GENAI_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("GENAI_UPLOAD_PROXY_URL"); v != "" {
		cfg.UploadProxyURL = v
	}

	cfg.normalize()
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveAliases replaces the aliases stored at path, leaving the other keys and
// any environment overrides out of it.
func SaveAliases(path string, aliases map[string]string) error {
	return updateFile(path, func(c *Config) { c.Aliases = aliases })
}

// SaveToken stores token at path the same way SaveAliases stores aliases.
func SaveToken(path, token string) error {
	return updateFile(path, func(c *Config) { c.Token = token })
}

func updateFile(path string, apply func(*Config)) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	apply(cfg)
	return SaveTo(cfg, path)
}

func (c *Config) normalize() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.UploadConcurrency <= 0 {
		c.UploadConcurrency = DefaultUploadConcurrency
	}
	if c.MaxMemoryBufferMB <= 0 {
		c.MaxMemoryBufferMB = DefaultMaxMemoryBufferMB
	}
	if c.Aliases == nil {
		c.Aliases = make(map[string]string)
	}
	for i, ext := range c.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.AllowedExtensions[i] = ext
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
}

// Save writes the config to ~/.genai-shell/config.yaml
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

func SaveTo(cfg *Config, path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write with secure permissions (0600 = owner read/write only)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
