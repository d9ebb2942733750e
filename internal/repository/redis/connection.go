package redis

import (
	"context"

	"artemis/internal/config"

	"github.com/redis/go-redis/v9"
)

type Repository struct {
	Client *redis.Client
	cfg    *config.Config
}

func New(cfg *config.Config) *Repository {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		panic(err)
	}

	return &Repository{Client: rdb, cfg: cfg}
}

func (r *Repository) Close() error {
	return r.Client.Close()
}
