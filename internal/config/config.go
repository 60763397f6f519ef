// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/langjourney/database/plugin"
	// Register the bundled storage plugins for validation
	_ "github.com/blinklabs-io/langjourney/database/plugin/blob"
	_ "github.com/blinklabs-io/langjourney/database/plugin/metadata"
	mysqlplugin "github.com/blinklabs-io/langjourney/database/plugin/metadata/mysql"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "langjourney.config"

const (
	DefaultShutdownTimeout   = "30s"
	DefaultBlobPlugin        = "badger"
	DefaultMetadataPlugin    = "sqlite"
	DefaultDatabasePath      = ".langjourney"
	DefaultChainId           = 31337
	DefaultGrantDurationDays = 365
	DefaultApiMaxConnections = 256
	envPrefix                = "langjourney"
)

var ErrInvalidConfig = errors.New("invalid config")

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// PostgresConfig holds the connection settings for the postgres metadata
// plugin
type PostgresConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslMode"  split_words:"true"`
	Port     uint   `yaml:"port"`
}

// MysqlConfig holds the connection settings for the mysql metadata plugin
type MysqlConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	TLSMode  string `yaml:"tlsMode"  envconfig:"TLS_MODE"`
	Port     uint   `yaml:"port"`
}

// Dsn returns the connection string for the mysql plugin
func (m MysqlConfig) Dsn() string {
	return mysqlplugin.BuildDsn(mysqlplugin.ConnectionConfig{
		Host:     m.Host,
		User:     m.User,
		Password: m.Password,
		Database: m.Database,
		TLSMode:  m.TLSMode,
		Port:     m.Port,
	})
}

// Dsn returns the connection string for the postgres plugin
func (p PostgresConfig) Dsn() string {
	return strings.Join(
		[]string{
			"host=" + p.Host,
			"user=" + p.User,
			"password=" + p.Password,
			"dbname=" + p.Database,
			"port=" + strconv.FormatUint(uint64(p.Port), 10),
			"sslmode=" + p.SSLMode,
		},
		" ",
	)
}

type Config struct {
	Postgres                   PostgresConfig `yaml:"postgres"`
	Mysql                      MysqlConfig    `yaml:"mysql"`
	DatabasePath               string         `yaml:"databasePath"               split_words:"true"`
	MetadataPlugin             string         `yaml:"metadataPlugin"             split_words:"true"`
	BlobPlugin                 string         `yaml:"blobPlugin"                 split_words:"true"`
	BindAddr                   string         `yaml:"bindAddr"                   split_words:"true"`
	Owner                      string         `yaml:"owner"`
	ContractAddress            string         `yaml:"contractAddress"            split_words:"true"`
	KeyFile                    string         `yaml:"keyFile"                    split_words:"true"`
	TlsCertFilePath            string         `yaml:"tlsCertFilePath"            envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath             string         `yaml:"tlsKeyFilePath"             envconfig:"TLS_KEY_FILE_PATH"`
	ShutdownTimeout            string         `yaml:"shutdownTimeout"            split_words:"true"`
	ChainId                    uint64         `yaml:"chainId"                    split_words:"true"`
	MaxTaskId                  uint64         `yaml:"maxTaskId"                  split_words:"true"`
	MetricsPort                uint           `yaml:"metricsPort"                split_words:"true"`
	ApiPort                    uint           `yaml:"apiPort"                    split_words:"true"`
	ApiMaxConnections          uint           `yaml:"apiMaxConnections"          split_words:"true"`
	GrantDurationDays          uint32         `yaml:"grantDurationDays"          split_words:"true"`
	RequireApprovedSubmissions bool           `yaml:"requireApprovedSubmissions" split_words:"true"`
	Tracing                    bool           `yaml:"tracing"`
	TracingStdout              bool           `yaml:"tracingStdout"              split_words:"true"`
}

// DefaultConfig returns a new config with every default applied
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:      DefaultDatabasePath,
		MetadataPlugin:    DefaultMetadataPlugin,
		BlobPlugin:        DefaultBlobPlugin,
		BindAddr:          "0.0.0.0",
		MetricsPort:       12798,
		ApiPort:           3000,
		ApiMaxConnections: DefaultApiMaxConnections,
		ChainId:           DefaultChainId,
		GrantDurationDays: DefaultGrantDurationDays,
		ShutdownTimeout:   DefaultShutdownTimeout,
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "langjourney",
			SSLMode:  "disable",
		},
		Mysql: MysqlConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Database: "langjourney",
		},
	}
}

// LoadConfig reads configFile over the defaults, then applies environment
// overrides. With no file given, ~/.langjourney/langjourney.yaml and
// /etc/langjourney/langjourney.yaml are tried in that order.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(
			candidates,
			filepath.Join(homeDir, ".langjourney", "langjourney.yaml"),
		)
	}
	candidates = append(candidates, "/etc/langjourney/langjourney.yaml")
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks plugin names, addresses and durations
func (c *Config) Validate() error {
	if !pluginExists(plugin.PluginTypeBlob, c.BlobPlugin) {
		return fmt.Errorf("%w: unknown blob plugin %q", ErrInvalidConfig, c.BlobPlugin)
	}
	if !pluginExists(plugin.PluginTypeMetadata, c.MetadataPlugin) {
		return fmt.Errorf(
			"%w: unknown metadata plugin %q",
			ErrInvalidConfig,
			c.MetadataPlugin,
		)
	}
	for name, addr := range map[string]string{
		"owner":           c.Owner,
		"contractAddress": c.ContractAddress,
	} {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: %s is not a hex address: %q", ErrInvalidConfig, name, addr)
		}
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return fmt.Errorf("%w: shutdownTimeout: %w", ErrInvalidConfig, err)
	}
	if c.GrantDurationDays == 0 {
		return fmt.Errorf("%w: grantDurationDays must be positive", ErrInvalidConfig)
	}
	if (c.TlsCertFilePath == "") != (c.TlsKeyFilePath == "") {
		return fmt.Errorf(
			"%w: tlsCertFilePath and tlsKeyFilePath must be set together",
			ErrInvalidConfig,
		)
	}
	return nil
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.ShutdownTimeout)
}

// OwnerAddress returns the configured owner, or the zero address if unset
func (c *Config) OwnerAddress() common.Address {
	if c.Owner == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Owner)
}

// ContractAddressValue returns the configured contract address, or the zero
// address if unset
func (c *Config) ContractAddressValue() common.Address {
	if c.ContractAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.ContractAddress)
}

func pluginExists(pluginType plugin.PluginType, name string) bool {
	return slices.ContainsFunc(
		plugin.GetPlugins(pluginType),
		func(p plugin.PluginEntry) bool {
			return p.Name == name
		},
	)
}
