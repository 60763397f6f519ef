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


package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/langjourney"
	"github.com/blinklabs-io/langjourney/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrNoOwner = errors.New(
	"no owner configured: set owner in the config file or LANGJOURNEY_OWNER",
)

// ConfigOptions translates the process config into node options. The API
// and metrics are left for the caller to add.
func ConfigOptions(
	cfg *config.Config,
	logger *slog.Logger,
) ([]langjourney.ConfigOptionFunc, error) {
	owner := cfg.OwnerAddress()
	if owner == (common.Address{}) {
		return nil, ErrNoOwner
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	opts := []langjourney.ConfigOptionFunc{
		langjourney.WithLogger(logger),
		langjourney.WithDatabasePath(cfg.DatabasePath),
		langjourney.WithBlobPlugin(cfg.BlobPlugin),
		langjourney.WithMetadataPlugin(cfg.MetadataPlugin),
		langjourney.WithOwner(owner),
		langjourney.WithContractAddress(cfg.ContractAddressValue()),
		langjourney.WithChainId(cfg.ChainId),
		langjourney.WithMaxTaskID(cfg.MaxTaskId),
		langjourney.WithRequireApprovedSubmissions(
			cfg.RequireApprovedSubmissions,
		),
		langjourney.WithShutdownTimeout(shutdownTimeout),
	}
	switch cfg.MetadataPlugin {
	case "postgres":
		opts = append(opts, langjourney.WithMetadataDsn(cfg.Postgres.Dsn()))
	case "mysql":
		opts = append(opts, langjourney.WithMetadataDsn(cfg.Mysql.Dsn()))
	}
	return opts, nil
}

// Open starts a node without listeners for commands that act on the data
// dir directly. The caller must Stop it.
func Open(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*langjourney.Node, error) {
	opts, err := ConfigOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	n, err := langjourney.New(langjourney.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Start(ctx); err != nil {
		return nil, err
	}
	return n, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := ConfigOptions(cfg, logger)
	if err != nil {
		return err
	}
	opts = append(
		opts,
		langjourney.WithApiListenAddress(
			fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
		),
		langjourney.WithTlsCertFilePath(cfg.TlsCertFilePath),
		langjourney.WithTlsKeyFilePath(cfg.TlsKeyFilePath),
		langjourney.WithApiMaxConnections(int(cfg.ApiMaxConnections)),
		// Enable metrics with default prometheus registry
		langjourney.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		langjourney.WithTracing(cfg.Tracing),
		langjourney.WithTracingStdout(cfg.TracingStdout),
	)
	n, err := langjourney.New(langjourney.NewConfig(opts...))
	if err != nil {
		return err
	}
	shutdownTimeout := n.ShutdownTimeout()
	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component",
		"node",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()
	shutdownMetrics := func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		errChan <- n.Run(signalCtx)
	}()

	select {
	case <-n.Ready():
		logger.Info(
			"node ready",
			"component", "node",
			"api", n.ApiAddr().String(),
		)
	case err := <-errChan:
		logger.Error("node error", "error", err)
		shutdownMetrics()
		return err
	}

	// Run returns after the signal context is done and the node has stopped
	err = <-errChan
	if signalCtx.Err() != nil {
		logger.Info("signal received, graceful shutdown finished")
	}
	shutdownMetrics()
	if err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
