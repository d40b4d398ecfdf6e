// cache — read-through кэш публичных профилей поверх Redis.
//
// Кэш не источник истины: промах всегда закрывается чтением из БД и
// репопуляцией. Запись условная (SET NX): конкурентная репопуляция из
// параллельного запроса не затирает уже положенное значение — проигрывает
// последний писатель, а не побеждает. TTL ограничивает устареваемость после
// внеполосных мутаций учётной записи; мутирующие операции обязаны звать
// Invalidate.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/go-user-api/internal/models"
)

// ProfileCache — минимальный контракт кэша профилей.
type ProfileCache interface {
	// Get возвращает проекцию и признак её наличия в кэше.
	Get(ctx context.Context, userID string) (*models.Profile, bool, error)
	// SetNX сохраняет проекцию с TTL, только если ключа ещё нет.
	SetNX(ctx context.Context, userID string, p *models.Profile, ttl time.Duration) error
	// Invalidate удаляет запись (вызывается мутациями учётной записи).
	Invalidate(ctx context.Context, userID string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb     *redis.Client
	appName string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// appName становится пространством имён ключей.
func NewRedisCache(redisURL, appName string) (ProfileCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, appName: appName}, nil
}

// key — "<appName>:user:<userID>".
func (c *redisCache) key(userID string) string {
	return fmt.Sprintf("%s:user:%s", c.appName, userID)
}

func (c *redisCache) Get(ctx context.Context, userID string) (*models.Profile, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// Нечитаемая запись — считаем промахом, её перезапишет репопуляция.
		return nil, false, nil
	}

	return &p, true, nil
}

func (c *redisCache) SetNX(ctx context.Context, userID string, p *models.Profile, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return c.rdb.SetNX(ctx, c.key(userID), raw, ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, c.key(userID)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
