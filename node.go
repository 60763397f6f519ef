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
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/blinklabs-io/langjourney/api"
	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/event"
	"github.com/blinklabs-io/langjourney/fhe/mock"
	"github.com/blinklabs-io/langjourney/indexer"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	coprocessor   *mock.Coprocessor
	ledger        *ledger.Ledger
	indexer       *indexer.Indexer
	api           *api.Server
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	ready         chan struct{}
	startMutex    sync.Mutex
	shutdownOnce  sync.Once
	started       bool
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if n.config.contractAddress == (common.Address{}) {
		n.config.contractAddress = crypto.CreateAddress(n.config.owner, 0)
	}
	return n, nil
}

// Start opens the database and brings up the ledger, indexer and (when a
// listen address is configured) the API server. It does not block. A failed
// Start releases what it opened.
func (n *Node) Start(ctx context.Context) error {
	n.startMutex.Lock()
	if n.started {
		n.startMutex.Unlock()
		return errors.New("node already started")
	}
	n.started = true
	err := n.start(ctx)
	n.startMutex.Unlock()
	if err != nil {
		return errors.Join(err, n.Stop())
	}
	close(n.ready)
	return nil
}

func (n *Node) start(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	dbConfig := &database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		MetadataDsn:    n.config.metadataDsn,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	}
	db, err := database.New(dbConfig)
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		n.config.logger.Error(
			"failed to create database",
			"error", err,
		)
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Load coprocessor
	coprocessorOpts := []mock.CoprocessorOptionFunc{
		mock.WithLogger(n.config.logger),
		mock.WithVerifyingContract(n.config.contractAddress),
	}
	if n.config.chainId > 0 {
		coprocessorOpts = append(
			coprocessorOpts,
			mock.WithChainId(n.config.chainId),
		)
	}
	coprocessor, err := mock.New(n.db, coprocessorOpts...)
	if err != nil {
		return fmt.Errorf("failed to load coprocessor: %w", err)
	}
	n.coprocessor = coprocessor
	// Load ledger
	l, err := ledger.New(
		n.db,
		n.coprocessor,
		ledger.WithLogger(n.config.logger),
		ledger.WithPromRegistry(n.config.promRegistry),
		ledger.WithEventBus(n.eventBus),
		ledger.WithOwner(n.config.owner),
		ledger.WithContractAddress(n.config.contractAddress),
		ledger.WithMaxTaskID(n.config.maxTaskID),
		ledger.WithRequireApprovedSubmissions(
			n.config.requireApprovedSubmissions,
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	n.ledger = l
	// Decrypt permissions come from the ledger
	n.coprocessor.SetACL(n.ledger)
	// Start indexer
	idx, err := indexer.New(
		n.ledger,
		n.eventBus,
		indexer.WithLogger(n.config.logger),
		indexer.WithPromRegistry(n.config.promRegistry),
	)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	if err := idx.Start(ctx); err != nil {
		return fmt.Errorf("failed to start indexer: %w", err)
	}
	n.indexer = idx
	// Start API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{
				PromRegistry:    n.config.promRegistry,
				ListenAddress:   n.config.apiListenAddress,
				TlsCertFilePath: n.config.tlsCertFilePath,
				TlsKeyFilePath:  n.config.tlsKeyFilePath,
				MaxConnections:  n.config.apiMaxConnections,
			},
			n.ledger,
			n.indexer,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}
	n.config.logger.Info(
		"node started",
		"component", "node",
		"owner", n.config.owner.Hex(),
		"contract", n.config.contractAddress.Hex(),
		"coprocessor", n.coprocessor.Address().Hex(),
	)
	return nil
}

// Run starts the node and blocks until Stop is called or ctx is done
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil {
		return err
	}
	// Wait for shutdown signal
	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return n.Stop()
	}
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

// Ready is closed once Start succeeds
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Done is closed once shutdown completes
func (n *Node) Done() <-chan struct{} {
	return n.done
}

func (n *Node) shutdown() error {
	// Wait out a Start in progress
	n.startMutex.Lock()
	defer n.startMutex.Unlock()

	ctx, cancel := context.WithTimeout(
		context.Background(),
		n.config.shutdownTimeout,
	)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("API shutdown: %w", stopErr))
		}
	}

	// Phase 2: Stop event consumers
	n.config.logger.Debug("shutdown phase 2: stopping indexer")

	if n.indexer != nil {
		n.indexer.Stop()
	}

	// Phase 3: Close database
	n.config.logger.Debug("shutdown phase 3: closing database")

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}

// EventBus returns the bus the ledger publishes domain events on
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Database returns the open database, or nil before Start
func (n *Node) Database() *database.Database {
	return n.db
}

// Coprocessor returns the mock coprocessor, or nil before Start
func (n *Node) Coprocessor() *mock.Coprocessor {
	return n.coprocessor
}

// Ledger returns the ledger, or nil before Start
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Indexer returns the event-fed index, or nil before Start
func (n *Node) Indexer() *indexer.Indexer {
	return n.indexer
}

// ApiAddr returns the address the API server is listening on, or nil when
// the API is disabled
func (n *Node) ApiAddr() net.Addr {
	if n.api == nil {
		return nil
	}
	return n.api.Addr()
}

// ShutdownTimeout returns the configured graceful shutdown timeout
func (n *Node) ShutdownTimeout() time.Duration {
	return n.config.shutdownTimeout
}
