package services

import (
	"context"
	"time"

	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
)

// Cache is the key/value part of pkg/cache the services use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RankStore is the sorted-set part of pkg/cache backing trending.
type RankStore interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, error)
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRem(ctx context.Context, key string, members ...interface{}) error
	ZCard(ctx context.Context, key string) (int64, error)
	ReplaceSortedSet(ctx context.Context, key string, scores map[string]float64) error
}

// publish sends an event after the write has committed. Failures are logged
// and never returned.
func publish(ctx context.Context, producer queue.Publisher, log *logger.Logger, key string, eventType queue.EventType, data interface{}) {
	if producer == nil {
		return
	}
	if err := producer.Publish(ctx, key, queue.NewEvent(eventType, data)); err != nil {
		log.WithError(err).WithField("event", eventType).Error("Failed to publish event")
	}
}
