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


package langjourney

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultShutdownTimeout = 30 * time.Second

type Config struct {
	promRegistry               prometheus.Registerer
	logger                     *slog.Logger
	dataDir                    string
	blobPlugin                 string
	metadataPlugin             string
	metadataDsn                string
	tlsCertFilePath            string
	tlsKeyFilePath             string
	chainId                    uint64
	maxTaskID                  uint64
	owner                      common.Address
	contractAddress            common.Address
	tracing                    bool
	tracingStdout              bool
	requireApprovedSubmissions bool
	shutdownTimeout            time.Duration
	// API listen address (empty = disabled)
	apiListenAddress  string
	apiMaxConnections int
}

func (n *Node) configValidate() error {
	if n.config.owner == (common.Address{}) {
		return errors.New("no owner address configured")
	}
	if (n.config.tlsCertFilePath == "") != (n.config.tlsKeyFilePath == "") {
		return errors.New(
			"TLS requires both a certificate and a key file",
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new node config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithMetadataDsn specifies the connection string for network metadata plugins
func WithMetadataDsn(dsn string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataDsn = dsn
	}
}

// WithLogger specifies the logger to use. This is useful for customizing logging output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. The default is
// to not register metrics.
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented here:
// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly
// useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithTlsCertFilePath specifies the path to the TLS certificate for the API server
func WithTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

// WithTlsKeyFilePath specifies the path to the TLS key for the API server
func WithTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithApiListenAddress specifies the listen address for the HTTP API. An
// empty address leaves the API disabled.
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithApiMaxConnections limits the number of simultaneous API connections.
// Zero means no limit.
func WithApiMaxConnections(limit int) ConfigOptionFunc {
	return func(c *Config) {
		if limit >= 0 {
			c.apiMaxConnections = limit
		}
	}
}

// WithOwner specifies the account allowed to manage teacher authorization
func WithOwner(owner common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithContractAddress specifies the address that handles and decrypt grants
// are bound to. It is derived from the owner when unset.
func WithContractAddress(addr common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.contractAddress = addr
	}
}

// WithChainId specifies the chain id used in input proofs and EIP-712 domains
func WithChainId(chainId uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.chainId = chainId
	}
}

// WithMaxTaskID specifies the highest task id accepted on submission. Zero leaves it unchecked
func WithMaxTaskID(maxTaskID uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.maxTaskID = maxTaskID
	}
}

// WithRequireApprovedSubmissions gates certificate minting on the learner's
// approved submissions
func WithRequireApprovedSubmissions(require bool) ConfigOptionFunc {
	return func(c *Config) {
		c.requireApprovedSubmissions = require
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		if timeout > 0 {
			c.shutdownTimeout = timeout
		}
	}
}
