package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/config"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/workers"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"

	_ "github.com/comitanigiacomo/kanso-analytics-engine/docs"
)

type stores struct {
	analytics  domain.AnalyticsRepository
	entities   domain.EntityRepository
	categories domain.CategoryRepository
	users      domain.UserRepository
}

type app struct {
	router    *gin.Engine
	worker    *workers.AnalyticsWorker
	scheduler *workers.ResetScheduler
	tokens    *services.TokenService
	stores    stores
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{}

	var db *sqlx.DB
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		log.Info("connecting to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

		var err error
		db, err = sqlx.ConnectContext(ctx, "pgx", cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		a.closers = append(a.closers, func() { _ = db.Close() })

		a.stores = stores{
			analytics:  repository.NewPostgresAnalyticsRepository(db),
			entities:   repository.NewPostgresEntityRepository(db),
			categories: repository.NewPostgresCategoryRepository(db),
			users:      repository.NewPostgresUserRepository(db.DB),
		}
	default:
		log.Warn("using in-memory storage, data is lost on restart")
		a.stores = stores{
			analytics:  repository.NewInMemoryAnalyticsRepository(),
			entities:   repository.NewInMemoryEntityRepository(),
			categories: repository.NewInMemoryCategoryRepository(),
			users:      repository.NewInMemoryUserRepository(),
		}
	}

	var rdb *redis.Client
	var guard workers.RunGuard
	if cfg.Redis.Enabled {
		var err error
		rdb, err = cache.NewRedisClient(cache.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		a.stores.analytics = repository.NewCachedAnalyticsRepository(a.stores.analytics, rdb, cfg.Redis.CacheTTL, log)
		guard = cache.NewResetGuard(rdb)
	}

	loc := cfg.Analytics.Location()

	analyticsSvc := services.NewAnalyticsService(a.stores.analytics, a.stores.entities, a.stores.categories, log, services.AnalyticsOptions{
		Location:             loc,
		HistoryRetentionDays: cfg.Analytics.HistoryRetentionDays,
		MaxWriteAttempts:     cfg.Analytics.MaxWriteAttempts,
		ResetConcurrency:     cfg.Analytics.ResetConcurrency,
	})

	a.worker = workers.NewAnalyticsWorker(analyticsSvc, log, cfg.Analytics.QueueSize)
	completionSvc := services.NewCompletionService(a.stores.entities, a.worker, log, loc)

	schedule := workers.DefaultResetSchedule(cfg.Analytics.WeekStartDay())
	if cfg.Scheduler.Daily != "" {
		schedule.Daily = cfg.Scheduler.Daily
	}
	if cfg.Scheduler.Weekly != "" {
		schedule.Weekly = cfg.Scheduler.Weekly
	}
	if cfg.Scheduler.Monthly != "" {
		schedule.Monthly = cfg.Scheduler.Monthly
	}
	a.scheduler = workers.NewResetScheduler(analyticsSvc, a.stores.entities, guard, log, workers.ResetSchedulerOptions{
		Location:   loc,
		WeekStart:  cfg.Analytics.WeekStartDay(),
		Schedule:   schedule,
		RunTimeout: cfg.Scheduler.RunTimeout,
	})

	a.tokens = services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL, a.stores.users)

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AnalyticsHandler:  adapterHTTP.NewAnalyticsHandler(analyticsSvc),
		CompletionHandler: adapterHTTP.NewCompletionHandler(completionSvc),
		AdminHandler:      adapterHTTP.NewAdminHandler(a.scheduler),
		TokenService:      a.tokens,
		AdminKey:          cfg.Auth.AdminKey,
		RateLimit:         cfg.RateLimit.Requests,
		RateWindow:        cfg.RateLimit.Window,
		Logger:            log,
		DB:                db,
		Redis:             rdb,
		StartTime:         time.Now(),
	})

	return a, nil
}
