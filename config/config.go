package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Port     string
	LogLevel string
	APIKey   string // required as a Bearer token when set
	Pexels   PexelsConfig
	Player   PlayerConfig
}

// PexelsConfig configures the stock video catalog client
type PexelsConfig struct {
	APIKey          string
	BaseURL         string
	PerPage         int
	Timeout         time.Duration
	RequestsPerHour int
}

// PlayerConfig tunes the playback shell
type PlayerConfig struct {
	RelatedLimit     int
	DragThreshold    float64
	CountdownSeconds int
	SkipSeconds      float64
	AllowFullscreen  bool
}

// placeholder key shipped in example env files
const placeholderAPIKey = "your_api_key_here"

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("api_key", "")
	v.SetDefault("pexels.api_key", "")
	v.SetDefault("pexels.base_url", "https://api.pexels.com/videos")
	v.SetDefault("pexels.per_page", 15)
	v.SetDefault("pexels.timeout", 10*time.Second)
	v.SetDefault("pexels.requests_per_hour", 200)
	v.SetDefault("player.related_limit", 5)
	v.SetDefault("player.drag_threshold", 100.0)
	v.SetDefault("player.countdown_seconds", 3)
	v.SetDefault("player.skip_seconds", 10.0)
	v.SetDefault("player.allow_fullscreen", true)
}

// BindFlags wires command line flags to their configuration keys
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"port":       "port",
		"log-level":  "log.level",
		"api-key":    "api_key",
		"pexels-key": "pexels.api_key",
		"pexels-url": "pexels.base_url",
		"related":    "player.related_limit",
		"fullscreen": "player.allow_fullscreen",
	}
	for flag, key := range bindings {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}
	return nil
}

// LoadConfig loads the configuration from flags, environment variables,
// an optional config file and defaults
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("DINOPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names used by earlier deployments
	_ = v.BindEnv("port", "DINOPLAY_PORT", "PORT")
	_ = v.BindEnv("pexels.api_key", "DINOPLAY_PEXELS_API_KEY", "PEXELS_API_KEY", "VITE_PEXELS_API_KEY")
	_ = v.BindEnv("log.level", "DINOPLAY_LOG_LEVEL", "LOG_LEVEL")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log.level"),
		APIKey:   v.GetString("api_key"),
		Pexels: PexelsConfig{
			APIKey:          v.GetString("pexels.api_key"),
			BaseURL:         strings.TrimRight(v.GetString("pexels.base_url"), "/"),
			PerPage:         v.GetInt("pexels.per_page"),
			Timeout:         v.GetDuration("pexels.timeout"),
			RequestsPerHour: v.GetInt("pexels.requests_per_hour"),
		},
		Player: PlayerConfig{
			RelatedLimit:     v.GetInt("player.related_limit"),
			DragThreshold:    v.GetFloat64("player.drag_threshold"),
			CountdownSeconds: v.GetInt("player.countdown_seconds"),
			SkipSeconds:      v.GetFloat64("player.skip_seconds"),
			AllowFullscreen:  v.GetBool("player.allow_fullscreen"),
		},
	}
	if cfg.Pexels.APIKey == placeholderAPIKey {
		cfg.Pexels.APIKey = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.Pexels.PerPage <= 0 {
		return fmt.Errorf("pexels.per_page must be positive, got %d", c.Pexels.PerPage)
	}
	if c.Pexels.RequestsPerHour <= 0 {
		return fmt.Errorf("pexels.requests_per_hour must be positive, got %d", c.Pexels.RequestsPerHour)
	}
	if c.Player.RelatedLimit <= 0 {
		return fmt.Errorf("player.related_limit must be positive, got %d", c.Player.RelatedLimit)
	}
	if c.Player.CountdownSeconds <= 0 {
		return fmt.Errorf("player.countdown_seconds must be positive, got %d", c.Player.CountdownSeconds)
	}
	if c.Player.DragThreshold < 0 {
		return fmt.Errorf("player.drag_threshold must not be negative")
	}
	return nil
}
