package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/instrumentation"
	"github.com/teemow/ohq-bluejeans/internal/store"
)

// Config carries the dependencies of a ServerContext.
type Config struct {
	Client      *bluejeans.Client
	Backend     *backend.Backend
	Provisioner *store.Provisioner
	Metrics     *instrumentation.Metrics
	Logger      *slog.Logger

	// StoreType is reported by the detailed health endpoint
	StoreType string

	// StoreCheck reports store connectivity; nil means always healthy
	StoreCheck func(context.Context) error

	// Closers run once on Shutdown, in order
	Closers []func() error
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	client      *bluejeans.Client
	backend     *backend.Backend
	provisioner *store.Provisioner
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
	storeType   string
	storeCheck  func(context.Context) error
	closers     []func() error
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, cfg Config) (*ServerContext, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("bluejeans client is required")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if cfg.Provisioner == nil {
		return nil, fmt.Errorf("provisioner is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		client:      cfg.Client,
		backend:     cfg.Backend,
		provisioner: cfg.Provisioner,
		metrics:     cfg.Metrics,
		logger:      logger,
		storeType:   cfg.StoreType,
		storeCheck:  cfg.StoreCheck,
		closers:     cfg.Closers,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Client returns the BlueJeans client
func (sc *ServerContext) Client() *bluejeans.Client {
	return sc.client
}

// Backend returns the backend adapter
func (sc *ServerContext) Backend() *backend.Backend {
	return sc.backend
}

// Provisioner returns the record provisioner
func (sc *ServerContext) Provisioner() *store.Provisioner {
	return sc.provisioner
}

// Metrics returns the metrics recorder. It may be nil; nil is a no-op recorder.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// StoreType returns the configured store type
func (sc *ServerContext) StoreType() string {
	return sc.storeType
}

// CheckStore reports store connectivity
func (sc *ServerContext) CheckStore(ctx context.Context) error {
	if sc.storeCheck == nil {
		return nil
	}
	return sc.storeCheck(ctx)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context and releases its resources
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()

	var errs []error
	for _, closeFn := range sc.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
