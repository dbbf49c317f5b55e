/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the server configuration from the environment.
//
// Variables are read with the ENTITYCRUD_ prefix; a double underscore marks
// nesting, so ENTITYCRUD_SERVER__READ_TIMEOUT maps to server.read_timeout.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every configuration variable.
const EnvPrefix = "ENTITYCRUD_"

// Supported backends.
const (
	BackendMemory   = "memory"
	BackendMongoDB  = "mongodb"
	BackendDynamoDB = "dynamodb"
)

// Config is the root configuration of the server.
type Config struct {
	Server          ServerConfig  `koanf:"server"`
	Log             LogConfig     `koanf:"log"`
	Backend         string        `koanf:"backend" validate:"required,oneof=memory mongodb dynamodb"`
	MongoDB         MongoDBConfig `koanf:"mongodb"`
	AWS             AWSConfig     `koanf:"aws"`
	ResourcesFile   string        `koanf:"resources_file" validate:"required"`
	PaginationLimit int64         `koanf:"pagination_limit" validate:"gt=0"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}

// MongoDBConfig is required when Backend is mongodb.
type MongoDBConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

// AWSConfig is required when Backend is dynamodb.
type AWSConfig struct {
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region"`
	Table     string `koanf:"table"`
	Endpoint  string `koanf:"endpoint"`
}

// Default returns the configuration used for unset variables.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Backend: BackendMemory,
		MongoDB: MongoDBConfig{
			Database: "entitycrud",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		ResourcesFile:   "resources.yaml",
		PaginationLimit: 20,
	}
}

// envKey maps ENTITYCRUD_SERVER__ADDR to server.addr.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Load reads the configuration. envFiles are loaded into the process
// environment first; without any, an optional .env file is used.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(backendSettings, Config{})
	return v
}

// backendSettings checks the settings the selected backend depends on.
func backendSettings(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	switch cfg.Backend {
	case BackendMongoDB:
		if cfg.MongoDB.URI == "" {
			sl.ReportError(cfg.MongoDB.URI, "MongoDB.URI", "URI", "required_for_backend", cfg.Backend)
		}
		if cfg.MongoDB.Database == "" {
			sl.ReportError(cfg.MongoDB.Database, "MongoDB.Database", "Database", "required_for_backend", cfg.Backend)
		}
	case BackendDynamoDB:
		if cfg.AWS.Table == "" {
			sl.ReportError(cfg.AWS.Table, "AWS.Table", "Table", "required_for_backend", cfg.Backend)
		}
		if cfg.AWS.Region == "" {
			sl.ReportError(cfg.AWS.Region, "AWS.Region", "Region", "required_for_backend", cfg.Backend)
		}
		if (cfg.AWS.AccessKey == "") != (cfg.AWS.SecretKey == "") {
			sl.ReportError(cfg.AWS.SecretKey, "AWS.SecretKey", "SecretKey", "paired_credentials", "")
		}
	}
}

// Validate checks field constraints and backend requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
