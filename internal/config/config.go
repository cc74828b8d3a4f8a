// Package config provides persistent configuration for the daystage CLI.
//
// Configuration is stored as JSON at ~/.config/daystage/config.json
// (XDG-compliant). DAYSTAGE_<KEY> environment variables, optionally loaded
// from a .env file, override the file. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/daystage/internal/method"
)

const (
	configDirName  = "daystage"
	configFileName = "config.json"

	// EnvPrefix is prepended to upper-cased keys to form environment names.
	EnvPrefix = "DAYSTAGE_"
)

// The location used when nothing else is configured or detected: the Kaaba.
const (
	DefaultCity      = "Makkah"
	DefaultLatitude  = 21.4225
	DefaultLongitude = 39.8262
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city",
	"latitude", "longitude",
	"timezone",
	"method", "school",
	"time_format",
	"show_hijri",
	"cache_dir",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City       string   `json:"city,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`  // pointer so the equator is distinguishable from "not set"
	Longitude  *float64 `json:"longitude,omitempty"` // likewise for the prime meridian
	Timezone   string   `json:"timezone,omitempty"`  // IANA name, e.g. "Asia/Riyadh"
	Method     string   `json:"method,omitempty"`    // method identifier, e.g. "MWL"
	School     *int     `json:"school,omitempty"`    // pointer so we can distinguish "not set" from 0
	TimeFormat string   `json:"time_format,omitempty"`
	ShowHijri  *bool    `json:"show_hijri,omitempty"`
	CacheDir   string   `json:"cache_dir,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	school := int(method.Standard)
	showHijri := true
	return Config{
		Method:     method.Default.String(),
		School:     &school,
		TimeFormat: "24h",
		ShowHijri:  &showHijri,
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "latitude":
		v, err := parseRange(value, -90, 90)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: %w", value, err)
		}
		c.Latitude = &v
	case "longitude":
		v, err := parseRange(value, -180, 180)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: %w", value, err)
		}
		c.Longitude = &v
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		c.Timezone = value
	case "method":
		m, err := method.Parse(value)
		if err != nil {
			return err
		}
		c.Method = m.String()
	case "school":
		s, err := method.ParseSchool(value)
		if err != nil {
			return err
		}
		v := int(s)
		c.School = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "show_hijri":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid show_hijri %q: must be true or false", value)
		}
		c.ShowHijri = &v
	case "cache_dir":
		c.CacheDir = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

func parseRange(value string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if !(v >= lo && v <= hi) {
		return 0, fmt.Errorf("must be between %g and %g", lo, hi)
	}
	return v, nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "latitude":
		return formatFloat(c.Latitude), nil
	case "longitude":
		return formatFloat(c.Longitude), nil
	case "timezone":
		return c.Timezone, nil
	case "method":
		return c.Method, nil
	case "school":
		if c.School == nil {
			return "", nil
		}
		return strconv.Itoa(*c.School), nil
	case "time_format":
		return c.TimeFormat, nil
	case "show_hijri":
		if c.ShowHijri == nil {
			return "", nil
		}
		return strconv.FormatBool(*c.ShowHijri), nil
	case "cache_dir":
		return c.CacheDir, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// ApplyEnv overrides keys from the environment using lookup (os.LookupEnv in
// production). Values are validated like `config set`, except method, which
// is kept verbatim so an unknown name falls back to the default with a
// warning rather than failing.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	for _, key := range ValidKeys {
		v, ok := lookup(EnvName(key))
		if !ok || v == "" {
			continue
		}
		if key == "method" {
			c.Method = v
			continue
		}
		if err := c.Set(key, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvName(key), err))
		}
	}
	return errors.Join(errs...)
}

// MethodOrDefault resolves the configured method. An unknown or empty name
// yields method.Default; ok is false only for a non-empty unknown name.
func (c *Config) MethodOrDefault() (m method.Method, ok bool) {
	if c.Method == "" {
		return method.Default, true
	}
	return method.Lookup(c.Method)
}

// SchoolOrDefault returns the school value, falling back to Standard.
func (c *Config) SchoolOrDefault() method.School {
	if c.School != nil && *c.School == int(method.Hanafi) {
		return method.Hanafi
	}
	return method.Standard
}

// ShowHijriOrDefault reports whether the Hijri date should be displayed.
func (c *Config) ShowHijriOrDefault() bool {
	if c.ShowHijri == nil {
		return true
	}
	return *c.ShowHijri
}

// Coordinates returns the configured position if both values are set.
func (c *Config) Coordinates() (lat, lon float64, ok bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return 0, 0, false
	}
	return *c.Latitude, *c.Longitude, true
}
