package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/db"
	"smallbiznis-stampcard/pkg/gen"
	"smallbiznis-stampcard/pkg/health"
	"smallbiznis-stampcard/pkg/logger"
	"smallbiznis-stampcard/pkg/metrics"
	"smallbiznis-stampcard/pkg/middleware"
	"smallbiznis-stampcard/pkg/minio"
	"smallbiznis-stampcard/pkg/redis"
	"smallbiznis-stampcard/pkg/sequence"
	"smallbiznis-stampcard/pkg/server"
	"smallbiznis-stampcard/pkg/task"
	"smallbiznis-stampcard/services/loyalty"
	"smallbiznis-stampcard/services/stampcard"
	"smallbiznis-stampcard/services/walletpass"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		sequence.Module,
		minio.Client,
		metrics.Module,
		task.Client,
		task.Server,
		middleware.Module,
		server.ProvideHTTPServer,
		health.Module,
		stampcard.Module,
		walletpass.Module,
		walletpass.Worker,
		loyalty.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "development" {
		return &fxevent.ZapLogger{Logger: logger}
	}
	return fxevent.NopLogger
})
