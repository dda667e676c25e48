// Package app wires configuration into stores, caches and services.
package app

import (
	"context"
	"fmt"
	"intervue/internal/cache"
	"intervue/internal/config"
	"intervue/internal/metrics"
	"intervue/internal/repository"
	"intervue/internal/repository/memory"
	"intervue/internal/service"
	"intervue/internal/storage"
	"intervue/internal/transport/rest"
	"intervue/internal/transport/ws"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// App holds every long-lived dependency of the server
type App struct {
	Config  *config.Config
	Repos   *repository.Store
	Metrics *metrics.Metrics
	Hub     *ws.Hub

	SessionCache cache.SessionCache
	DayCache     cache.DayCache

	Auth         *service.AuthService
	Days         *service.DayService
	Slots        *service.SlotService
	Reservations *service.ReservationService
	Sessions     *service.SessionService
	Evaluations  *service.EvaluationService

	log     *zap.Logger
	closers []func(context.Context) error
}

// New connects the configured backends and builds the services
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	if err := a.openStore(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.openCache(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	var recordings service.RecordingStore
	if cfg.RecordingEnabled() {
		store, err := storage.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.RecordingFolder)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		recordings = store
		log.Info("recording storage enabled", zap.String("folder", cfg.RecordingFolder))
	} else {
		log.Warn("cloudinary credentials not set, recording upload disabled")
	}

	a.Metrics = metrics.New()
	a.Hub = ws.NewHub(log.Named("ws"), a.Metrics)
	a.closers = append(a.closers, func(context.Context) error {
		a.Hub.Close()
		return nil
	})

	svcLog := log.Named("service")
	a.Auth = service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	a.Days = service.NewDayService(a.Repos.Days, a.Repos.Slots, a.DayCache, svcLog)
	a.Slots = service.NewSlotService(a.Repos.Slots, a.Repos.Days, a.Repos.Leases, svcLog)
	a.Reservations = service.NewReservationService(a.Repos.Reservations, a.Repos.Slots, a.Repos.Days, a.Repos.Sessions, a.SessionCache, svcLog)
	a.Sessions = service.NewSessionService(a.Repos.Sessions, a.Repos.Reservations, a.Repos.Slots, a.Repos.Evaluations, a.SessionCache, recordings, svcLog)
	a.Evaluations = service.NewEvaluationService(a.Repos.Evaluations, a.Repos.Sessions, svcLog)

	// Inject broadcaster (Hub implements service.Broadcaster)
	a.Sessions.SetBroadcaster(a.Hub)
	a.Hub.SetAuthorizer(a.Sessions)
	a.Reservations.SetMetrics(a.Metrics)
	a.Sessions.SetMetrics(a.Metrics)
	a.Evaluations.SetMetrics(a.Metrics)

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Config.StoreDriver == config.StoreMemory {
		a.Repos = memory.New().Repositories()
		a.log.Warn("using in-memory store, data is lost on exit")
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.MongoURI))
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, client.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(a.Config.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	a.Repos = repository.NewMongoStore(db)
	a.log.Info("connected to MongoDB", zap.String("database", a.Config.MongoDatabase))
	return nil
}

func (a *App) openCache(ctx context.Context) error {
	if a.Config.RedisAddr == "" {
		a.log.Info("REDIS_ADDR not set, caching disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping Redis: %w", err)
	}

	a.SessionCache = cache.NewSessionCache(rdb, a.Config.CacheTTL)
	a.DayCache = cache.NewDayCache(rdb, a.Config.CacheTTL)
	a.log.Info("connected to Redis", zap.String("addr", a.Config.RedisAddr))
	return nil
}

// Router builds the HTTP handler for the app
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:        a.Auth,
		DayService:         a.Days,
		SlotService:        a.Slots,
		ReservationService: a.Reservations,
		SessionService:     a.Sessions,
		EvaluationService:  a.Evaluations,
		WSHub:              a.Hub,
		Metrics:            a.Metrics,
		Logger:             a.log.Named("http"),
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
		MaxRequestsPerMin:  a.Config.MaxRequestsPerMin,
		MaxUploadBytes:     int64(a.Config.MaxUploadMB) << 20,
		TrustProxy:         a.Config.TrustProxy,
		DevTokens:          a.Config.DevTokens,
	})
}

// Close releases backends in reverse order of opening
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
