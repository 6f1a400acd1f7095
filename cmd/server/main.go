package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/priority/api/handler"
	"github.com/fastygo/priority/domain/priority"
	"github.com/fastygo/priority/internal/config"
	"github.com/fastygo/priority/internal/infrastructure/buffer"
	"github.com/fastygo/priority/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/priority/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/priority/internal/infrastructure/redis"
	"github.com/fastygo/priority/internal/middleware"
	"github.com/fastygo/priority/internal/router"
	"github.com/fastygo/priority/internal/services"
	"github.com/fastygo/priority/internal/services/lifecycle"
	"github.com/fastygo/priority/pkg/httpcontext"
	"github.com/fastygo/priority/pkg/logger"
	"github.com/fastygo/priority/repository/postgres"
	redisRepo "github.com/fastygo/priority/repository/redis"
	authUC "github.com/fastygo/priority/usecase/auth"
	profileUC "github.com/fastygo/priority/usecase/profile"
	ruleUC "github.com/fastygo/priority/usecase/rule"
	taskUC "github.com/fastygo/priority/usecase/task"
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
	zapLogger = zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.Context(context.Background())
	defer stop()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "pending_writes")
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(
		monitor.PostgresPinger(pool),
		monitor.RedisPinger(redisClient),
		bufferStore,
		cfg.Monitor.Interval,
		zapLogger,
	)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	ruleRepo := postgres.NewRuleRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.RefreshTTL)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		taskRepo,
		ruleRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  cfg.Buffer.Retention,
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	calculator := priority.NewCalculator(priority.NewEvaluator(), zapLogger.Named("priority"))
	hasher := authUC.NewPasswordHasher(cfg.JWT.BcryptCost)
	tokens := authUC.NewTokenIssuer(authUC.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})

	authUseCase := authUC.New(userRepo, sessionRepo, tokens, hasher, zapLogger)
	profileUseCase := profileUC.New(userRepo, hasher, zapLogger)
	taskUseCase := taskUC.New(taskRepo, ruleRepo, userRepo, calculator, bufferBridge, zapLogger)
	ruleUseCase := ruleUC.New(ruleRepo, userRepo, bufferBridge, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Rule:    apiHandler.NewRuleHandler(ruleUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(tokens, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
