package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultApplication  = "openMRS"
	DefaultProvider     = "openai"
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultWorkers      = 4
	DefaultRPS          = 33.0
	DefaultCallTimeout  = 90 * time.Second
	DefaultMaxScanBytes = 2_000_000
	DefaultCacheTTL     = 24 * time.Hour
)

// providerKeyEnv maps providers to the environment variable holding their key.
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GOOGLE_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

type AuditConfig struct {
	Application       string        `yaml:"application,omitempty"`
	MaxRequirements   int           `yaml:"max_requirements,omitempty"`
	SourceRoot        string        `yaml:"source_root,omitempty"`
	MaxScanBytes      int64         `yaml:"max_scan_bytes,omitempty"`
	Workers           int           `yaml:"workers,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"`
	CallTimeout       time.Duration `yaml:"call_timeout,omitempty"`
}

type CacheConfig struct {
	RedisURL string        `yaml:"redis_url,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	ReasoningEffort  string                    `yaml:"reasoning_effort,omitempty"`
	MaxOutputTokens  int                       `yaml:"max_output_tokens,omitempty"`
	Temperature      *float64                  `yaml:"temperature,omitempty"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
	Audit            AuditConfig               `yaml:"audit"`
	Cache            CacheConfig               `yaml:"cache"`
}

// Path overrides the default config location when set (--config).
var Path string

func GetConfigPath() (string, error) {
	if Path != "" {
		return Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".seccat-audit")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func Default() *Config {
	return &Config{
		SelectedProvider: DefaultProvider,
		Providers:        make(map[string]ProviderConfig),
	}
}

// LoadConfig reads the config file, or defaults when it does not exist.
// Environment overrides are not applied; see Resolve.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return cfg, nil
}

// Resolve loads the config file, a .env file in the working directory if
// present, and applies environment overrides and defaults.
func Resolve() (*Config, error) {
	_ = godotenv.Load()
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overlays environment variables on top of file values.
func (c *Config) ApplyEnv() {
	for provider, env := range providerKeyEnv {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			c.SetAPIKey(provider, v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("SECCAT_PROVIDER")); v != "" {
		c.SelectedProvider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" && c.SelectedProvider == "openai" {
		c.SelectedModel = v
	}
	if c.Audit.Application == "" {
		if repo := os.Getenv("GITHUB_REPOSITORY"); repo != "" {
			c.Audit.Application = filepath.Base(repo)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.SelectedProvider == "" {
		c.SelectedProvider = DefaultProvider
	}
	// Other providers fall back to their own default model.
	if c.SelectedModel == "" && c.SelectedProvider == "openai" {
		c.SelectedModel = DefaultOpenAIModel
	}
	if c.Audit.Application == "" {
		c.Audit.Application = DefaultApplication
	}
	if c.Audit.SourceRoot == "" {
		c.Audit.SourceRoot = "."
	}
	if c.Audit.MaxScanBytes <= 0 {
		c.Audit.MaxScanBytes = DefaultMaxScanBytes
	}
	if c.Audit.Workers <= 0 {
		c.Audit.Workers = DefaultWorkers
	}
	if c.Audit.RequestsPerSecond == 0 {
		c.Audit.RequestsPerSecond = DefaultRPS
	}
	if c.Audit.CallTimeout <= 0 {
		c.Audit.CallTimeout = DefaultCallTimeout
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600 permissions for security (api keys)
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

func (c *Config) GetAPIKey(provider string) string {
	return c.Providers[provider].APIKey
}
