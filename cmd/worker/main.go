package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"talentgraph.app/sourcer/common/cache"
	"talentgraph.app/sourcer/common/id"
	"talentgraph.app/sourcer/common/logger"
	"talentgraph.app/sourcer/core/config"
	"talentgraph.app/sourcer/core/db"
	"talentgraph.app/sourcer/internal/callback"
	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/service"
	"talentgraph.app/sourcer/internal/store"
	"talentgraph.app/sourcer/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg)

	slog.InfoContext(ctx, "sourcer worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	// Different node ID than the server so snowflake ids never collide
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    int64(cfg.Worker.BatchSize),
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Worker.MaxDeliveries,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Querier())

	settingsCache := cache.New[string, model.TenantSettings](time.Duration(cfg.Sourcing.SettingsCacheTTLSec) * time.Second)
	settingsCache.StartSweeper(ctx, time.Minute)
	settings := service.NewSettingsProvider(stores.TenantSettings(), settingsCache, cfg.Sourcing)

	deliverer := callback.NewDeliverer(&http.Client{
		Timeout: time.Duration(cfg.Callback.TimeoutSeconds) * time.Second,
	})

	txRunner := &workerTxRunnerAdapter{db: database}
	processor := worker.NewProcessor(txRunner, stores.SourcingRequests(), settings, worker.NewStubDiscovery(), deliverer)

	w := worker.New(consumer, processor, worker.Config{
		MaxAttempts: cfg.Worker.MaxDeliveries,
		Concurrency: cfg.Worker.Concurrency,
	})

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   time.Duration(cfg.Worker.ReclaimMinIdle) * time.Second,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	// Stop reclaimer first (quick)
	reclaimer.Stop()

	// Stop worker (may be mid-pass)
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

// workerTxRunnerAdapter bridges db.DB to worker.TxRunner.
type workerTxRunnerAdapter struct {
	db *db.DB
}

func (a *workerTxRunnerAdapter) WithTx(ctx context.Context, fn func(stores worker.StoreProvider) error) error {
	return a.db.WithTx(ctx, func(q db.Querier) error {
		return fn(store.NewStores(q))
	})
}

const banner = `
███████╗ ██████╗ ██╗   ██╗██████╗  ██████╗███████╗██████╗     ██████╗ ██╗██████╗ ███████╗██╗     ██╗███╗   ██╗███████╗
██╔════╝██╔═══██╗██║   ██║██╔══██╗██╔════╝██╔════╝██╔══██╗    ██╔══██╗██║██╔══██╗██╔════╝██║     ██║████╗  ██║██╔════╝
███████╗██║   ██║██║   ██║██████╔╝██║     █████╗  ██████╔╝    ██████╔╝██║██████╔╝█████╗  ██║     ██║██╔██╗ ██║█████╗
╚════██║██║   ██║██║   ██║██╔══██╗██║     ██╔══╝  ██╔══██╗    ██╔═══╝ ██║██╔═══╝ ██╔══╝  ██║     ██║██║╚██╗██║██╔══╝
███████║╚██████╔╝╚██████╔╝██║  ██║╚██████╗███████╗██║  ██║    ██║     ██║██║     ███████╗███████╗██║██║ ╚████║███████╗
╚══════╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝ ╚═════╝╚══════╝╚═╝  ╚═╝    ╚═╝     ╚═╝╚═╝     ╚══════╝╚══════╝╚═╝╚═╝  ╚═══╝╚══════╝
`
