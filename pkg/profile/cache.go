package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
)

// Cached keeps recently seen genders in Redis in front of another Source.
// Cache faults are logged and the request falls through to the source.
type Cached struct {
	next   Source
	client *redis.Client
	ttl    time.Duration
}

func NewCached(next Source, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, client: client, ttl: ttl}
}

func cacheKey(identifier string) string {
	return fmt.Sprintf("profile:gender:%s", strings.ToLower(strings.TrimSpace(identifier)))
}

func (c *Cached) Gender(ctx context.Context, identifier string) (string, error) {
	if c.client == nil {
		return c.next.Gender(ctx, identifier)
	}

	key := cacheKey(identifier)
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		logger.Log.WithError(err).WithField("key", key).Warn("Profile cache read failed")
	}

	gender, err := c.next.Gender(ctx, identifier)
	if err != nil {
		return "", err
	}
	if err := c.client.Set(ctx, key, gender, c.ttl).Err(); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"key":   key,
			"error": err,
		}).Warn("Profile cache write failed")
	}
	return gender, nil
}
