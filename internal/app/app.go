package app

import (
	"log/slog"

	rpcapp "artemis/internal/app/rpc"
	webapp "artemis/internal/app/web"
	"artemis/internal/config"
	httpapi "artemis/internal/http"
	"artemis/internal/lib/kafka"
	"artemis/internal/lib/ratelimiter"
	"artemis/internal/lib/secret"
	"artemis/internal/repository/redis"
	"artemis/internal/rpc"
	"artemis/internal/services/auth"
	"artemis/internal/services/authz"
	"artemis/internal/storage/sqlite"
)

type App struct {
	GRPCSrv *rpcapp.App
	HTTPSrv *webapp.App

	redisRepo *redis.Repository
	storage   *sqlite.Storage
	producer  *kafka.Producer
}

func New(log *slog.Logger, cfg *config.Config) *App {
	redisRepo := redis.New(cfg)

	log.Info("initializing sqlite storage", slog.String("path", cfg.StoragePath))
	store, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		panic(err)
	}

	hasher, err := secret.NewHasher(cfg.Hasher.Iterations)
	if err != nil {
		panic(err)
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(log, cfg.Kafka.Brokers)
		if err != nil {
			panic(err)
		}
	}

	limiter := ratelimiter.NewRateLimiter(redisRepo.Client)

	var events auth.EventProducer
	if producer != nil {
		events = producer
	}
	authService := auth.New(log, cfg, hasher, store, store, redisRepo, events)
	authenticator := auth.NewAuthenticator(log, cfg, redisRepo)

	var authzEvents authz.EventProducer
	if producer != nil {
		authzEvents = producer
	}
	engine := authz.NewHandler(log, authzEvents)
	policies, err := authz.NewRegistry(cfg.Policies)
	if err != nil {
		panic(err)
	}

	var rpcEvents rpc.EventProducer
	if producer != nil {
		rpcEvents = producer
	}
	grpcApp := rpcapp.New(log, cfg, authenticator, engine, policies, rpcEvents, nil)

	handlers := httpapi.NewHandlers(log, cfg, authService, limiter)
	guard := httpapi.NewGuard(log, cfg, authenticator, engine, policies)
	router := httpapi.NewRouter(handlers, guard, policies)
	httpApp := webapp.New(log, cfg, router)

	return &App{
		GRPCSrv:   grpcApp,
		HTTPSrv:   httpApp,
		redisRepo: redisRepo,
		storage:   store,
		producer:  producer,
	}
}

// Close releases external connections after the servers have stopped.
func (a *App) Close() {
	if a.producer != nil {
		a.producer.Close()
	}
	_ = a.redisRepo.Close()
	_ = a.storage.Close()
}
