package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ReportCache — read-through кэш отчётов в Redis с коротким TTL.
// Инвалидации нет: отчёты пересчитываемы, устаревание ограничено TTL.
type ReportCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewReportCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get читает и десериализует значение; любая ошибка — просто промах.
func (c *ReportCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("report cache get", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("report cache decode", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set сохраняет значение; ошибки не фатальны для вызывающего.
func (c *ReportCache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("report cache encode", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("report cache set", zap.String("key", key), zap.Error(err))
	}
}
