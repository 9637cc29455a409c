package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/config"
	"github.com/prperemyshlev/outreach-service/pkg/database"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const serviceName = "outreach-service"

type Infrastructure interface {
	Database() database.SQLDatabase
	Redis() *database.Redis
	Logger() *zap.Logger
	Metrics() *observability.Metrics
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	database       database.SQLDatabase
	redis          *database.Redis
	logger         *zap.Logger
	metrics        *observability.Metrics
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	if cfg.Storage.AutoMigrate {
		if err := database.Migrate(cfg.Storage.Driver, cfg.DatabaseDSN(), 0); err != nil {
			return nil, err
		}
		logger.Info("Migrations applied", zap.String("driver", cfg.Storage.Driver))
	}

	db, err := database.Open(cfg.Storage.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Storage.Driver, err)
	}
	i.database = db

	redis, err := database.NewRedis(ctx, cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = i.database.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	i.redis = redis

	meterProvider, metricsHandler, err := observability.InitTelemetry(serviceName)
	if err != nil {
		_ = i.database.Close()
		_ = i.redis.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.meterProvider = meterProvider
	i.metricsHandler = metricsHandler

	metrics, err := observability.NewMetrics(meterProvider)
	if err != nil {
		_ = i.database.Close()
		_ = i.redis.Close()
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}
	i.metrics = metrics

	return i, nil
}

func (i *infrastructure) Database() database.SQLDatabase {
	return i.database
}

func (i *infrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) Metrics() *observability.Metrics {
	return i.metrics
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	errs := make(chan error, 3)

	go func() { errs <- i.database.Close() }()
	go func() { errs <- i.redis.Close() }()
	go func() { errs <- observability.Shutdown(ctx, i.meterProvider, i.logger) }()

	err := errors.Join(<-errs, <-errs, <-errs)
	// stderr sync fails with EINVAL on some platforms; nothing to recover
	_ = i.logger.Sync()
	return err
}
