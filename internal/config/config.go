// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults — merged in priority order.
// Go convention: configuration is loaded into structs, not accessed as raw key-value pairs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration struct. Nested structs organize related settings.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Render    RenderConfig    `mapstructure:"render"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// TrustedProxies lists the proxy IPs/CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is always the connection's remote address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type StorageConfig struct {
	// ImageRoot is where the upload subsystem writes profile images.
	// The profileImage query param is resolved relative to it.
	ImageRoot string `mapstructure:"image_root"`
	// DefaultProfileAsset is the image drawn when the requested one can't be used.
	DefaultProfileAsset string `mapstructure:"default_profile_asset"`
	// DatabasePath for the render log. Empty disables it.
	DatabasePath string `mapstructure:"database_path"`
}

type RenderConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	CacheMaxAge   int           `mapstructure:"cache_max_age"`

	// Optimize runs the finished PNG through libvips before it's sent.
	Optimize    bool `mapstructure:"optimize"`
	Compression int  `mapstructure:"compression"`
	Palette     bool `mapstructure:"palette"`
	// Quality only matters with Palette: it caps the quantisation loss.
	Quality int `mapstructure:"quality"`

	Colors ColorConfig `mapstructure:"colors"`
	Text   TextConfig  `mapstructure:"text"`
}

// ColorConfig holds #rrggbb colors for the preview.
type ColorConfig struct {
	Brand      string `mapstructure:"brand"`
	BadgeFill  string `mapstructure:"badge_fill"`
	BadgeText  string `mapstructure:"badge_text"`
	Text       string `mapstructure:"text"`
	ButtonFill string `mapstructure:"button_fill"`
	ButtonText string `mapstructure:"button_text"`
	Separator  string `mapstructure:"separator"`
}

type TextConfig struct {
	Heading    string `mapstructure:"heading"`
	SubHeading string `mapstructure:"sub_heading"`
	CallToAct  string `mapstructure:"call_to_action"`
	Wordmark   string `mapstructure:"wordmark"`
}

type AuthConfig struct {
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
// In Go, functions return errors as the last return value — callers must check them.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read from YAML config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found" — defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// OG_ prefix + nested keys: OG_RENDER_TIMEOUT=3s → render.timeout=3s
	v.SetEnvPrefix("OG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("storage.image_root", "./storage/uploads")
	v.SetDefault("storage.default_profile_asset", "./assets/default-profile.png")
	v.SetDefault("storage.database_path", "./storage/og-service.db")
	v.SetDefault("render.timeout", 5*time.Second)
	v.SetDefault("render.max_concurrent", 8)
	v.SetDefault("render.cache_max_age", 3600)
	v.SetDefault("render.optimize", true)
	v.SetDefault("render.compression", 9)
	v.SetDefault("render.palette", false)
	v.SetDefault("render.quality", 90)
	v.SetDefault("render.colors.brand", "#c62828")
	v.SetDefault("render.colors.badge_fill", "#ffffff")
	v.SetDefault("render.colors.badge_text", "#8b0000")
	v.SetDefault("render.colors.text", "#ffffff")
	v.SetDefault("render.colors.button_fill", "#ffffff")
	v.SetDefault("render.colors.button_text", "#c62828")
	v.SetDefault("render.colors.separator", "#ffffff")
	v.SetDefault("render.text.heading", "Blood Needed")
	v.SetDefault("render.text.sub_heading", "in")
	v.SetDefault("render.text.call_to_action", "I Want to Donate")
	v.SetDefault("render.text.wordmark", "Blood Donation Network")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("log.level", "info")
}

// Validate catches settings that would only fail later, at request time.
func (c *Config) Validate() error {
	if c.Storage.DefaultProfileAsset == "" {
		return fmt.Errorf("storage.default_profile_asset is required")
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be positive, got %s", c.Render.Timeout)
	}
	if c.Render.MaxConcurrent <= 0 {
		return fmt.Errorf("render.max_concurrent must be positive, got %d", c.Render.MaxConcurrent)
	}
	if c.Render.Compression < 0 || c.Render.Compression > 9 {
		return fmt.Errorf("render.compression must be between 0 and 9, got %d", c.Render.Compression)
	}
	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100, got %d", c.Render.Quality)
	}
	return nil
}

// Address returns the listen address string like "0.0.0.0:8080".
// This is a method on ServerConfig — Go attaches methods to types via receiver syntax.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
