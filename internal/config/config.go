// Package config loads fieldreport settings from defaults, an optional
// YAML file, and FIELDREPORT_* environment variables, in that order of
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BrandingConfig is the issuing company identity printed on reports.
type BrandingConfig struct {
	CompanyName string `yaml:"companyName"`
	Address     string `yaml:"address"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
	Website     string `yaml:"website"`
	LogoPath    string `yaml:"logoPath"`
}

// PhotosConfig bounds the photo loader's output.
type PhotosConfig struct {
	MaxDimension int `yaml:"maxDimension"`
	JPEGQuality  int `yaml:"jpegQuality"`
}

// LogConfig controls logger initialization.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Branding BrandingConfig `yaml:"branding"`
	Photos   PhotosConfig   `yaml:"photos"`
	Log      LogConfig      `yaml:"log"`
	Theme    string         `yaml:"theme"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 7575},
		Photos: PhotosConfig{MaxDimension: 1600, JPEGQuality: 80},
		Log:    LogConfig{Level: "info", Format: "auto"},
		Theme:  "navy",
	}
}

// configPaths are tried in order when no explicit path is given.
var configPaths = []string{
	"/etc/fieldreport/fieldreport.yml",
	"/etc/fieldreport/fieldreport.yaml",
	"./fieldreport.yml",
	"./fieldreport.yaml",
}

// Load builds the configuration: defaults, then the YAML file (the
// given path, or the first default path that exists), then environment
// overrides, then validation. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env files set process env before overrides are read.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	cfg := Default()

	if err := cfg.loadFromFile(path); err != nil {
		return nil, err
	}
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	paths := configPaths
	if path != "" {
		paths = []string{path}
	}
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			if os.IsNotExist(err) && path == "" {
				continue
			}
			if path == "" {
				log.Warn().Err(err).Str("path", p).Msg("Failed to read config file, skipping")
				continue
			}
			return fmt.Errorf("read config file %s: %w", p, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", p, err)
		}
		log.Info().Str("path", p).Msg("Loaded config file")
		return nil
	}
	return nil
}

func (c *Config) loadFromEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			var n int
			if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
				*dst = n
			} else {
				log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-numeric env override")
			}
		}
	}

	setString("FIELDREPORT_HOST", &c.Server.Host)
	setInt("FIELDREPORT_PORT", &c.Server.Port)

	setString("FIELDREPORT_COMPANY_NAME", &c.Branding.CompanyName)
	setString("FIELDREPORT_COMPANY_ADDRESS", &c.Branding.Address)
	setString("FIELDREPORT_COMPANY_PHONE", &c.Branding.Phone)
	setString("FIELDREPORT_COMPANY_EMAIL", &c.Branding.Email)
	setString("FIELDREPORT_COMPANY_WEBSITE", &c.Branding.Website)
	setString("FIELDREPORT_LOGO_PATH", &c.Branding.LogoPath)

	setInt("FIELDREPORT_PHOTO_MAX_DIMENSION", &c.Photos.MaxDimension)
	setInt("FIELDREPORT_PHOTO_JPEG_QUALITY", &c.Photos.JPEGQuality)

	setString("FIELDREPORT_LOG_LEVEL", &c.Log.Level)
	setString("FIELDREPORT_LOG_FORMAT", &c.Log.Format)
	setString("FIELDREPORT_THEME", &c.Theme)
}

// Validate checks value ranges after all sources are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Photos.JPEGQuality < 1 || c.Photos.JPEGQuality > 100 {
		return fmt.Errorf("photo JPEG quality %d out of range (1-100)", c.Photos.JPEGQuality)
	}
	if c.Photos.MaxDimension < 100 {
		return fmt.Errorf("photo max dimension %d too small", c.Photos.MaxDimension)
	}
	return nil
}

// LoadLogo reads the configured logo file, if any. A missing logo is
// not an error; the report header degrades to text-only branding.
func (c *Config) LoadLogo() []byte {
	if c.Branding.LogoPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.Branding.LogoPath)
	if err != nil {
		log.Warn().Err(err).Str("path", c.Branding.LogoPath).Msg("Failed to read logo, using text-only header")
		return nil
	}
	return data
}
