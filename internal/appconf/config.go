// Package appconf holds process configuration. Values come from command-line
// flags, an optional YAML file, and the environment (optionally seeded from
// .env files), in increasing order of precedence.
package appconf

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all the settings for the server.
type Config struct {
	Port int         `yaml:"port"`
	Env  Environment `yaml:"env"`

	// APIKey is the Train Tracker key. Only read from the environment.
	APIKey          string        `yaml:"-"`
	CTABaseURL      string        `yaml:"cta_base_url"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	CacheTTL   time.Duration `yaml:"cache_ttl"`
	BatchSize  int           `yaml:"batch_size"`
	HolidayRun int           `yaml:"holiday_run"`

	// RateLimit is requests per second allowed per client.
	RateLimit int `yaml:"rate_limit"`
	// TrustedProxies are addresses or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `yaml:"trusted_proxies"`

	// DefaultKind/DefaultIDs answer requests that name no identifier.
	DefaultKind string   `yaml:"default_kind"`
	DefaultIDs  []string `yaml:"default_ids"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:            3000,
		Env:             Development,
		CTABaseURL:      "https://lapi.transitchicago.com/api/1.0",
		UpstreamTimeout: 10 * time.Second,
		CacheTTL:        59 * time.Second,
		BatchSize:       4,
		HolidayRun:      1225,
		RateLimit:       20,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file leave cfg untouched.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv seeds the process environment from the given .env files.
// Missing files are skipped; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv copies TRAIN_API_KEY and PORT from getenv into cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if key := getenv("TRAIN_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.APIKey == "":
		return errors.New("TRAIN_API_KEY is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.CacheTTL <= 0:
		return errors.New("cache_ttl must be positive")
	case c.BatchSize <= 0:
		return errors.New("batch_size must be positive")
	case c.UpstreamTimeout <= 0:
		return errors.New("upstream_timeout must be positive")
	case c.DefaultKind != "" && c.DefaultKind != "stpid" && c.DefaultKind != "mapid":
		return fmt.Errorf("default_kind must be stpid or mapid, got %q", c.DefaultKind)
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single-host
// prefix. Valid entries are returned even when a later one fails.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return prefixes, fmt.Errorf("trusted_proxies: %w", err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return prefixes, fmt.Errorf("trusted_proxies: %w", err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
