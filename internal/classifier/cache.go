package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/models"
)

const defaultCacheTTL = 10 * time.Minute

// CacheStore is the slice of the Redis client the cache needs.
type CacheStore interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// CachedClassifier memoizes predictions per feature vector in Redis. Cache
// errors never fail a prediction; they are logged and the model is asked.
type CachedClassifier struct {
	next   Classifier
	store  CacheStore
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

func NewCachedClassifier(next Classifier, store CacheStore, ttl time.Duration, prefix string, log *logger.Logger) *CachedClassifier {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedClassifier{
		next:   next,
		store:  store,
		ttl:    ttl,
		prefix: prefix,
		log:    log.With("service", "PredictionCache"),
	}
}

func (c *CachedClassifier) Predict(ctx context.Context, features []float32) ([]models.Prediction, error) {
	key := c.key(features)

	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []models.Prediction
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		c.log.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, goredis.Nil):
		c.log.Warn("prediction cache read failed", "error", err)
	}

	predictions, err := c.next.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(predictions); err == nil {
		if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn("prediction cache write failed", "error", err)
		}
	}
	return predictions, nil
}

func (c *CachedClassifier) key(features []float32) string {
	bits := make([]byte, len(features))
	for i, f := range features {
		if f != 0 {
			bits[i] = 1
		}
	}
	sum := sha256.Sum256(bits)
	return c.prefix + hex.EncodeToString(sum[:])
}

// NewRedisClient dials and pings Redis.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
