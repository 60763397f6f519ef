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

// Package api serves a read-only JSON view of the ledger over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/netutil"
)

const (
	DefaultListenAddress = ":8080"
	tracerName           = "github.com/blinklabs-io/langjourney/api"
)

// Config holds the API server settings. Only ListenAddress is required.
type Config struct {
	PromRegistry    prometheus.Registerer
	TracerProvider  trace.TracerProvider
	ListenAddress   string
	// TLS is enabled when both paths are set
	TlsCertFilePath string
	TlsKeyFilePath  string
	// Limit on simultaneously accepted connections, 0 for no limit
	MaxConnections  int
}

// Server is the HTTP API server
type Server struct {
	config     Config
	logger     *slog.Logger
	ledger     LedgerReader
	index      Index
	tracer     trace.Tracer
	metrics    *apiMetrics
	httpServer *http.Server
	listenAddr net.Addr
	mu         sync.Mutex
}

// New creates an API server over ledger and index
func New(
	cfg Config,
	ledger LedgerReader,
	index Index,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Server{
		config:  cfg,
		logger:  logger,
		ledger:  ledger,
		index:   index,
		tracer:  tp.Tracer(tracerName),
		metrics: newAPIMetrics(cfg.PromRegistry),
	}
}

// Handler returns the routing handler without starting a listener
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /health", s.handleHealth},
		{"GET /api/v0/info", s.handleInfo},
		{"GET /api/v0/paths", s.handlePaths},
		{"GET /api/v0/paths/{id}", s.handlePath},
		{"GET /api/v0/paths/{id}/task_count", s.handlePathTaskCount},
		{"GET /api/v0/submissions", s.handleSubmissions},
		{"GET /api/v0/submissions/{id}", s.handleSubmission},
		{"GET /api/v0/submissions/{id}/score", s.handleSubmissionScore},
		{"GET /api/v0/certificates", s.handleCertificates},
		{"GET /api/v0/certificates/{id}", s.handleCertificate},
		{"GET /api/v0/certificates/{id}/score", s.handleCertificateScore},
		{"GET /api/v0/teachers", s.handleTeachers},
		{"GET /api/v0/teachers/{address}", s.handleTeacher},
	}
	for _, route := range routes {
		mux.Handle(route.pattern, s.instrument(route.pattern, route.handler))
	}
	mux.Handle("/", s.instrument("not_found", s.handleNotFound))
	return mux
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when ctx is done or Stop is called.
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	ln, err := s.startServer(server)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.listenAddr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info(
		"API listener started",
		"address", ln.Addr().String(),
	)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		srv := s.httpServer
		s.httpServer = nil
		s.mu.Unlock()
		if srv == nil {
			return
		}
		s.logger.Debug("context cancelled, shutting down API server")
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv != nil {
		s.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}

// Addr returns the address the server is listening on, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// startServer binds the listening socket first so port conflicts are
// reported by Start, then serves in a background goroutine
func (s *Server) startServer(
	server *http.Server,
) (net.Listener, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for API server: %w", err)
	}
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}
	go func() {
		var err error
		if s.config.TlsCertFilePath != "" && s.config.TlsKeyFilePath != "" {
			err = server.ServeTLS(
				ln,
				s.config.TlsCertFilePath,
				s.config.TlsKeyFilePath,
			)
		} else {
			err = server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return ln, nil
}
