package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/config"
	"github.com/teemow/ohq-bluejeans/internal/instrumentation"
	"github.com/teemow/ohq-bluejeans/internal/logging"
	"github.com/teemow/ohq-bluejeans/internal/server"
	"github.com/teemow/ohq-bluejeans/internal/store"
)

// loadConfig reads configuration and builds the process logger. Logs go to
// stderr so stdout stays free for command output and the stdio transport.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.LoadOptions{EnvFile: envFile, ConfigFile: configFile})
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger, err := logging.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// buildServerContext wires the BlueJeans client, the backend adapter and the
// provisioning store described by cfg. metrics may be nil.
func buildServerContext(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*server.ServerContext, error) {
	if err := cfg.Validate(true); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	mode, err := cfg.ExpiryMode()
	if err != nil {
		return nil, err
	}

	clientOpts := []bluejeans.Option{
		bluejeans.WithBaseURL(cfg.BlueJeans.APIURL),
		bluejeans.WithHTTPClient(&http.Client{
			Timeout:   cfg.BlueJeans.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
		bluejeans.WithLogger(logger),
		bluejeans.WithTimezone(cfg.BlueJeans.Timezone),
		bluejeans.WithTokenExpiryMode(mode),
	}
	backendOpts := []backend.Option{backend.WithLogger(logger)}
	if metrics != nil {
		clientOpts = append(clientOpts, bluejeans.WithMetrics(metrics))
		backendOpts = append(backendOpts, backend.WithMetrics(metrics))
	}

	client := bluejeans.NewClient(cfg.BlueJeans.ClientID, cfg.BlueJeans.ClientSecret, clientOpts...)
	b := backend.New(cfg.Backend(), client, backendOpts...)

	scConfig := server.Config{
		Client:    client,
		Backend:   b,
		Metrics:   metrics,
		Logger:    logger,
		StoreType: cfg.Store.Type,
	}

	var (
		records store.Store
		locker  store.Locker
	)
	switch cfg.Store.Type {
	case config.StoreRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Store.RedisAddr},
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := store.Ping(ctx, rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		records = store.NewRedisStore(rdb, cfg.Store.KeyPrefix)
		locker = store.NewRedisLocker(rdb, cfg.Store.KeyPrefix, cfg.Store.LockTTL)
		scConfig.StoreCheck = func(ctx context.Context) error { return store.Ping(ctx, rdb) }
		scConfig.Closers = append(scConfig.Closers, rdb.Close)
		logger.Debug("using redis store", "addr", cfg.Store.RedisAddr, "prefix", cfg.Store.KeyPrefix)
	default:
		records = store.NewMemoryStore()
		locker = store.NewMemoryLocker()
	}

	scConfig.Provisioner = store.NewProvisioner(b, client, records, locker, logger)

	sc, err := server.NewServerContext(ctx, scConfig)
	if err != nil {
		for _, closeFn := range scConfig.Closers {
			_ = closeFn()
		}
		return nil, err
	}
	return sc, nil
}

// runWithServerContext loads configuration, builds a server context for a
// one-shot command and shuts it down afterwards.
func runWithServerContext(cmd *cobra.Command, fn func(ctx context.Context, sc *server.ServerContext) error) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	sc, err := buildServerContext(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := sc.Shutdown(); err != nil {
			logger.Warn("shutdown failed", logging.Err(err))
		}
	}()

	return fn(ctx, sc)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
