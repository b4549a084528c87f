package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/cheliu754/CS409-MP3/api/handler"
	"github.com/cheliu754/CS409-MP3/internal/config"
	boltInfra "github.com/cheliu754/CS409-MP3/internal/infrastructure/bolt"
	"github.com/cheliu754/CS409-MP3/internal/infrastructure/monitor"
	pgInfra "github.com/cheliu754/CS409-MP3/internal/infrastructure/postgres"
	redisInfra "github.com/cheliu754/CS409-MP3/internal/infrastructure/redis"
	"github.com/cheliu754/CS409-MP3/internal/metrics"
	"github.com/cheliu754/CS409-MP3/internal/middleware"
	"github.com/cheliu754/CS409-MP3/internal/router"
	"github.com/cheliu754/CS409-MP3/internal/services/auditor"
	"github.com/cheliu754/CS409-MP3/internal/services/lifecycle"
	"github.com/cheliu754/CS409-MP3/internal/store"
	"github.com/cheliu754/CS409-MP3/pkg/httpcontext"
	"github.com/cheliu754/CS409-MP3/pkg/logger"
	taskUC "github.com/cheliu754/CS409-MP3/usecase/task"
	userUC "github.com/cheliu754/CS409-MP3/usecase/user"

	redislib "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	docs, err := openStore(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("store initialization failed", zap.Error(err))
	}

	var redisClient *redislib.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	mon := monitor.New(docs, redisClient, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	if cfg.Auditor.Enabled {
		aud := auditor.New(docs, cfg.Auditor.Interval, cfg.Auditor.Repair, zapLogger)
		if err := aud.Start(); err != nil {
			zapLogger.Fatal("auditor failed to start", zap.Error(err))
		}
		manager.Register("auditor", func(ctx context.Context) error {
			aud.Stop(ctx)
			return nil
		})
	}

	userUseCase := userUC.New(docs, zapLogger)
	taskUseCase := taskUC.New(docs, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger, cfg.API.TaskListLimit),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, cfg.API.BasePath)
	if cfg.HTTP.EnableMetrics {
		r.GET("/metrics", metrics.Handler())
	}

	chain := []func(fasthttp.RequestHandler) fasthttp.RequestHandler{
		middleware.Recover(zapLogger),
		middleware.AccessLog(zapLogger),
	}
	if cfg.HTTP.EnableMetrics {
		chain = append(chain, metrics.Instrument)
	}
	if cfg.RateLimit.Enabled && redisClient != nil {
		chain = append(chain, middleware.RateLimit(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window, zapLogger))
	}
	handler := middleware.Chain(r.Handler, chain...)

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openStore selects the configured persistence backend and registers its
// shutdown hook.
func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverBolt:
		st, err := boltInfra.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, err
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return st.Close()
		})
		zapLogger.Info("document store ready",
			zap.String("driver", config.DriverBolt),
			zap.String("path", cfg.Store.BoltPath))
		return st, nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, err
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		zapLogger.Info("document store ready", zap.String("driver", config.DriverPostgres))
		return pgInfra.NewStore(pool), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
