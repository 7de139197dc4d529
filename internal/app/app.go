// Package app wires the relay, its stores and its transports from config.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"codeclive/internal/cache"
	"codeclive/internal/config"
	"codeclive/internal/ratelimit"
	"codeclive/internal/repository"
	"codeclive/internal/service"
	"codeclive/internal/session"
	"codeclive/internal/transport/rest"
	"codeclive/internal/transport/ws"
)

type App struct {
	Config  *config.Config
	Relay   *service.Relay
	RoomSvc *service.RoomService
	AuthSvc *service.AuthService
	Hub     *ws.Hub
	Router  http.Handler

	mirror   *service.Mirror
	audit    *service.AuditLog
	mongo    *mongo.Client
	redis    *redis.Client
	gateway  service.SessionGateway
	auditOut service.AuditSink
	history  service.RoomHistory
	trail    service.AuditReader
}

// New connects the backing stores cfg asks for and builds the relay
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.NeedsMongo() {
		if err := a.connectMongo(ctx); err != nil {
			return nil, err
		}
	}

	db := a.database()
	switch cfg.Relay.Persistence {
	case config.PersistenceMongo:
		repo := repository.NewLiveRoomRepo(db)
		a.gateway = repo
		a.history = repo
	case config.PersistenceRedis:
		if err := a.connectRedis(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.gateway = cache.NewLiveRoomCache(a.redis, cfg.Relay.SessionTTL)
	}

	if cfg.Relay.Audit == config.AuditMongo {
		repo := repository.NewAuditRepo(db)
		a.auditOut = repo
		a.trail = repo
	} else {
		a.auditOut = service.NewLogAuditSink(log.Logger)
	}

	a.build()
	return a, nil
}

func (a *App) build() {
	cfg := a.Config

	a.Hub = ws.NewHub()
	a.AuthSvc = service.NewAuthService(cfg.Auth.JWTSecret)
	a.Relay = service.NewRelay(session.NewStore(), session.NewRegistry(), cfg.Relay.CommandTimeout)
	a.Relay.SetBroadcaster(a.Hub)

	if a.gateway != nil {
		a.mirror = service.NewMirror(a.gateway, cfg.Relay.QueueSize, cfg.Relay.CommandTimeout)
		a.Relay.SetGateway(a.gateway, a.mirror)
	}
	a.audit = service.NewAuditLog(a.auditOut, cfg.Relay.QueueSize, cfg.Relay.CommandTimeout)
	a.Relay.SetAuditLog(a.audit)

	a.RoomSvc = service.NewRoomService(a.Relay)
	a.RoomSvc.SetArchive(a.history, a.trail)
	a.Router = rest.NewRouter(&rest.Container{
		AuthService:  a.AuthSvc,
		RoomService:  a.RoomSvc,
		Relay:        a.Relay,
		WSHub:        a.Hub,
		Limiters:     ratelimit.NewClientLimiters(cfg.Relay.Rate, cfg.Relay.Burst),
		AuthRequired: cfg.Auth.Required,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})

	log.Info().Str("module", "app").
		Str("persistence", cfg.Relay.Persistence).
		Str("audit", cfg.Relay.Audit).
		Bool("authRequired", cfg.Auth.Required).
		Msg("relay ready")
}

func (a *App) connectMongo(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.Mongo.URI))
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("ping MongoDB: %w", err)
	}
	a.mongo = client
	log.Info().Str("module", "app").Str("database", a.Config.Mongo.Database).Msg("connected to MongoDB")
	return nil
}

func (a *App) connectRedis(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{Addr: a.Config.Redis.Addr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return fmt.Errorf("ping Redis: %w", err)
	}
	a.redis = rdb
	log.Info().Str("module", "app").Str("addr", a.Config.Redis.Addr).Msg("connected to Redis")
	return nil
}

func (a *App) database() *mongo.Database {
	if a.mongo == nil {
		return nil
	}
	return a.mongo.Database(a.Config.Mongo.Database)
}

// Close stops the hub, flushes background writes and disconnects stores
func (a *App) Close(ctx context.Context) {
	if a.Hub != nil {
		a.Hub.Stop()
	}
	a.mirror.Close()
	a.audit.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Str("module", "app").Msg("redis close")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Str("module", "app").Msg("mongo disconnect")
		}
	}
}
