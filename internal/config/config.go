package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIBaseURL            string `yaml:"apiBaseURL"`
	LogLevel              string `yaml:"logLevel"`
	DataDir               string `yaml:"dataDir"`
	HTTPTimeout           string `yaml:"httpTimeout"`
	PaymentProviderURL    string `yaml:"paymentProviderURL"`
	PaymentPublishableKey string `yaml:"paymentPublishableKey"`
	ImagePreloadMargin    int    `yaml:"imagePreloadMargin"`
	FallbackImage         string `yaml:"fallbackImage"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("NOTSTEAM_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTSTEAM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTSTEAM_DATA_DIR"); v != "" {
		cfg.DataDir = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTSTEAM_HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTSTEAM_PAYMENT_PROVIDER_URL"); v != "" {
		cfg.PaymentProviderURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTSTEAM_PAYMENT_PUBLISHABLE_KEY"); v != "" {
		cfg.PaymentPublishableKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTSTEAM_IMAGE_PRELOAD_MARGIN"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.ImagePreloadMargin = n
		}
	}
	if v := os.Getenv("NOTSTEAM_FALLBACK_IMAGE"); v != "" {
		cfg.FallbackImage = strings.TrimSpace(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.APIBaseURL == "" {
		return errors.New("config: apiBaseURL is required (set in config.yaml or NOTSTEAM_API_BASE_URL)")
	}
	if _, err := url.Parse(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("config: invalid apiBaseURL: %w", err)
	}
	if cfg.DataDir == "" {
		return errors.New("config: dataDir is required (set in config.yaml or NOTSTEAM_DATA_DIR)")
	}
	if cfg.ImagePreloadMargin < 0 {
		return errors.New("config: imagePreloadMargin must be >= 0")
	}
	return nil
}

// ParseHTTPTimeout parses the optional httpTimeout duration string.
func ParseHTTPTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return 15 * time.Second, nil
	}
	dur, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid httpTimeout duration: %w", err)
	}
	if dur <= 0 {
		return 0, errors.New("httpTimeout must be positive")
	}
	return dur, nil
}
