package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the apicore configuration
type Config struct {
	ProjectName string           `mapstructure:"project_name"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Metadata    MetadataConfig   `mapstructure:"metadata"`
	Pagination  PaginationConfig `mapstructure:"pagination"`
	GraphQL     GraphQLConfig    `mapstructure:"graphql"`
	Serializer  SerializerConfig `mapstructure:"serializer"`
	Security    SecurityConfig   `mapstructure:"security"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	// Driver is one of pgx, postgres or sqlite3
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// CacheConfig selects the metadata cache pool
type CacheConfig struct {
	// Adapter is one of memory, redis or none
	Adapter  string        `mapstructure:"adapter"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	RedisURL string        `mapstructure:"redis_url"`
}

// MetadataConfig points at resource configuration files
type MetadataConfig struct {
	Paths []string `mapstructure:"paths"`
}

// PaginationConfig holds the defaults applied to every collection operation
type PaginationConfig struct {
	Enabled                   bool   `mapstructure:"enabled"`
	ClientEnabled             bool   `mapstructure:"client_enabled"`
	ClientItemsPerPage        bool   `mapstructure:"client_items_per_page"`
	ItemsPerPage              int    `mapstructure:"items_per_page"`
	MaximumItemsPerPage       int    `mapstructure:"maximum_items_per_page"`
	PageParameterName         string `mapstructure:"page_parameter_name"`
	EnabledParameterName      string `mapstructure:"enabled_parameter_name"`
	ItemsPerPageParameterName string `mapstructure:"items_per_page_parameter_name"`
	Partial                   bool   `mapstructure:"partial"`
	ClientPartial             bool   `mapstructure:"client_partial"`
	PartialParameterName      string `mapstructure:"partial_parameter_name"`
}

// GraphQLConfig configures the schema builder
type GraphQLConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	NestingSeparator  string `mapstructure:"nesting_separator"`
	MaxDepth          int    `mapstructure:"max_depth"`
	CollectionPaging  string `mapstructure:"collection_pagination_type"`
	DeprecationNotice bool   `mapstructure:"deprecation_notice"`
}

// SerializerConfig configures the normalizers
type SerializerConfig struct {
	AllowPlainIdentifiers bool   `mapstructure:"allow_plain_identifiers"`
	NameConverter         string `mapstructure:"name_converter"`
}

// SecurityConfig configures bearer token parsing
type SecurityConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	RolesClaim string        `mapstructure:"roles_claim"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	// RoleHierarchy lists the roles each role implies
	RoleHierarchy map[string][]string `mapstructure:"role_hierarchy"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads the configuration from apicore.yml or apicore.yaml in the working directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration searching the given directories
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("apicore")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("APICORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// defaults always decode
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_name", "apicore")
	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.url", "")

	v.SetDefault("cache.adapter", "memory")
	v.SetDefault("cache.prefix", "apicore:")
	v.SetDefault("cache.ttl", time.Duration(-1))

	v.SetDefault("metadata.paths", []string{})

	v.SetDefault("pagination.enabled", true)
	v.SetDefault("pagination.client_enabled", false)
	v.SetDefault("pagination.client_items_per_page", false)
	v.SetDefault("pagination.items_per_page", 30)
	v.SetDefault("pagination.maximum_items_per_page", 0)
	v.SetDefault("pagination.page_parameter_name", "page")
	v.SetDefault("pagination.enabled_parameter_name", "pagination")
	v.SetDefault("pagination.items_per_page_parameter_name", "itemsPerPage")
	v.SetDefault("pagination.partial", false)
	v.SetDefault("pagination.client_partial", false)
	v.SetDefault("pagination.partial_parameter_name", "partial")

	v.SetDefault("graphql.enabled", true)
	v.SetDefault("graphql.nesting_separator", "_")
	v.SetDefault("graphql.max_depth", 10)
	v.SetDefault("graphql.collection_pagination_type", "cursor")
	v.SetDefault("graphql.deprecation_notice", true)

	v.SetDefault("serializer.allow_plain_identifiers", false)
	v.SetDefault("serializer.name_converter", "")

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.roles_claim", "roles")
	v.SetDefault("security.token_ttl", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

// GetProjectRoot walks up from the working directory looking for apicore.yml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{"apicore.yml", "apicore.yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no apicore.yml found")
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case "pgx", "postgres", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be one of pgx, postgres, sqlite3, got: %s", cfg.Database.Driver)
	}

	switch cfg.Cache.Adapter {
	case "memory", "none":
	case "redis":
		if cfg.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.adapter is redis")
		}
	default:
		return fmt.Errorf("cache.adapter must be one of memory, redis, none, got: %s", cfg.Cache.Adapter)
	}

	p := cfg.Pagination
	if p.ItemsPerPage < 0 {
		return fmt.Errorf("pagination.items_per_page must not be negative, got: %d", p.ItemsPerPage)
	}
	if p.MaximumItemsPerPage < 0 {
		return fmt.Errorf("pagination.maximum_items_per_page must not be negative, got: %d", p.MaximumItemsPerPage)
	}

	switch cfg.GraphQL.CollectionPaging {
	case "cursor", "page":
	default:
		return fmt.Errorf("graphql.collection_pagination_type must be cursor or page, got: %s", cfg.GraphQL.CollectionPaging)
	}
	if cfg.GraphQL.NestingSeparator == "" || strings.Contains(cfg.GraphQL.NestingSeparator, ".") {
		return fmt.Errorf("graphql.nesting_separator must be a non-empty string without dots")
	}

	return nil
}
