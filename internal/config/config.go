// Package config loads depmanifest settings with Viper.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// file, DEPMANIFEST_* environment variables, and command-line flags (applied
// by the CLI after loading). The file is config.yaml in the user config
// directory ($XDG_CONFIG_HOME/depmanifest on Linux) unless --config names
// another one.
//
//	cache:
//	  ttl: 24h
//	  redis_url: redis://localhost:6379/0
//	maven:
//	  repository_url: https://repo1.maven.org/maven2
//	server:
//	  listen: :8080
//	storage:
//	  mongo_uri: mongodb://localhost:27017
//	  database: depmanifest
//	configurations:
//	  - name: annotationProcessor
//	    role: optional-compile
//
// Gradle configuration overrides are a list rather than a map because
// Viper lower-cases map keys and configuration names are case-sensitive.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/integrations/maven"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

const (
	// AppName names the config directory and the environment prefix.
	AppName = "depmanifest"
	// FileName is the config file name inside the config directory.
	FileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. DEPMANIFEST_CACHE_TTL.
	EnvPrefix = "DEPMANIFEST"
)

// Config holds every setting.
type Config struct {
	Cache          CacheConfig     `mapstructure:"cache"`
	Maven          MavenConfig     `mapstructure:"maven"`
	Server         ServerConfig    `mapstructure:"server"`
	Storage        StorageConfig   `mapstructure:"storage"`
	Configurations []Configuration `mapstructure:"configurations"`
}

// CacheConfig configures result and BOM caching.
type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Dir      string        `mapstructure:"dir"`       // file cache directory; empty uses the user cache dir
	RedisURL string        `mapstructure:"redis_url"` // shared cache for the API server
}

// MavenConfig configures BOM lookups.
type MavenConfig struct {
	RepositoryURL   string `mapstructure:"repository_url"`
	LocalRepository string `mapstructure:"local_repository"` // empty uses ~/.m2/repository
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// StorageConfig configures run history for the HTTP API.
type StorageConfig struct {
	MongoURI string `mapstructure:"mongo_uri"` // empty keeps runs in memory
	Database string `mapstructure:"database"`
}

// Configuration maps a Gradle configuration name to a role.
type Configuration struct {
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file; it must exist.
	File string
	// Dir overrides the config directory (tests).
	Dir string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache:   CacheConfig{TTL: 24 * time.Hour},
		Maven:   MavenConfig{RepositoryURL: maven.DefaultRepositoryURL},
		Server:  ServerConfig{Listen: ":8080"},
		Storage: StorageConfig{Database: "depmanifest"},
	}
}

// Dir returns the depmanifest configuration directory.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Load reads the configuration. A missing default config file is not an
// error; a missing explicit file is. It returns the path of the file that
// was read, or "" when only defaults and environment apply.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("cache.redis_url", defaults.Cache.RedisURL)
	v.SetDefault("maven.repository_url", defaults.Maven.RepositoryURL)
	v.SetDefault("maven.local_repository", defaults.Maven.LocalRepository)
	v.SetDefault("server.listen", defaults.Server.Listen)
	v.SetDefault("storage.mongo_uri", defaults.Storage.MongoURI)
	v.SetDefault("storage.database", defaults.Storage.Database)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.File
	if path == "" {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = Dir(); err != nil {
				return nil, "", err
			}
		}
		path = filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errs.Wrap(errs.ErrCodeInvalidInput, err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeInvalidInput, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	if c.Cache.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "cache.ttl cannot be negative")
	}
	if err := errs.ValidateURL(c.Maven.RepositoryURL); err != nil {
		return fmt.Errorf("maven.repository_url: %w", err)
	}
	if c.Cache.RedisURL != "" && !strings.HasPrefix(c.Cache.RedisURL, "redis://") && !strings.HasPrefix(c.Cache.RedisURL, "rediss://") {
		return errs.New(errs.ErrCodeInvalidInput, "cache.redis_url must use redis:// or rediss://")
	}
	if c.Storage.MongoURI != "" && !strings.HasPrefix(c.Storage.MongoURI, "mongodb://") && !strings.HasPrefix(c.Storage.MongoURI, "mongodb+srv://") {
		return errs.New(errs.ErrCodeInvalidInput, "storage.mongo_uri must use mongodb:// or mongodb+srv://")
	}
	seen := make(map[string]bool, len(c.Configurations))
	for i, conf := range c.Configurations {
		if conf.Name == "" {
			return errs.New(errs.ErrCodeInvalidInput, "configurations[%d]: name is required", i)
		}
		if seen[conf.Name] {
			return errs.New(errs.ErrCodeInvalidInput, "configurations[%d]: duplicate %s", i, conf.Name)
		}
		seen[conf.Name] = true
		if _, err := manifest.ParseRole(conf.Role); err != nil {
			return fmt.Errorf("configurations[%d] %s: %w", i, conf.Name, err)
		}
	}
	return nil
}

// ConfigurationMap returns the Gradle overrides as configuration → role name.
func (c *Config) ConfigurationMap() map[string]string {
	if len(c.Configurations) == 0 {
		return nil
	}
	m := make(map[string]string, len(c.Configurations))
	for _, conf := range c.Configurations {
		m[conf.Name] = conf.Role
	}
	return m
}
