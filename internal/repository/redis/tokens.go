package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"artemis/internal/domain/models"
	"artemis/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CacheToken stores the serialized record under the primary token key.
// Expire <= 0 stores the entry without a TTL; that convention keeps
// non-expiring admin tokens working and must not change.
func (r *Repository) CacheToken(ctx context.Context, symbol string, record *models.TokenRecord) error {
	const op = "repository.redis.CacheToken"

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := repository.TokenKey(r.cfg.Token.CachePrefix, symbol)
	if err := r.Client.Set(ctx, key, payload, ttlOf(record.Expire)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// FindToken resolves a token symbol to its record. With refresh set, a hit
// re-arms the sliding TTL using the record's own Expire; the refresh is
// best-effort, concurrent readers race on it and last write wins.
func (r *Repository) FindToken(ctx context.Context, symbol string, refresh bool) (*models.TokenRecord, error) {
	const op = "repository.redis.FindToken"

	key := repository.TokenKey(r.cfg.Token.CachePrefix, symbol)
	payload, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrTokenNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var record models.TokenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if refresh && record.Expire > 0 {
		r.Client.Expire(ctx, key, ttlOf(record.Expire))
	}

	return &record, nil
}

func (r *Repository) RemoveToken(ctx context.Context, symbol string) error {
	const op = "repository.redis.RemoveToken"

	key := repository.TokenKey(r.cfg.Token.CachePrefix, symbol)
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// BindUserToken records symbol as the currently active token for the
// (user, end type) pair. The latest write wins: that overwrite is the
// single-session enforcement mechanism.
func (r *Repository) BindUserToken(ctx context.Context, endType models.EndType, userID uuid.UUID, symbol string, expireSeconds int64) error {
	const op = "repository.redis.BindUserToken"

	key := repository.UserMapKey(r.cfg.Token.UserMapPrefix, endType, userID)
	if err := r.Client.Set(ctx, key, symbol, ttlOf(expireSeconds)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// FindUserToken returns the active token symbol for the pair, or
// repository.ErrTokenNotFound. A refreshing read only re-arms entries that
// already carry a TTL; persist entries stay persistent.
func (r *Repository) FindUserToken(ctx context.Context, endType models.EndType, userID uuid.UUID, refresh bool) (string, error) {
	const op = "repository.redis.FindUserToken"

	key := repository.UserMapKey(r.cfg.Token.UserMapPrefix, endType, userID)
	symbol, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", op, repository.ErrTokenNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if refresh {
		if ttl, err := r.Client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			r.Client.Expire(ctx, key, ttlOf(r.cfg.Token.ExpireSeconds))
		}
	}

	return symbol, nil
}

func (r *Repository) UnbindUserToken(ctx context.Context, endType models.EndType, userID uuid.UUID) error {
	const op = "repository.redis.UnbindUserToken"

	key := repository.UserMapKey(r.cfg.Token.UserMapPrefix, endType, userID)
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func ttlOf(seconds int64) time.Duration {
	if seconds <= 0 {
		return 0 // redis: no expiration
	}
	return time.Duration(seconds) * time.Second
}
