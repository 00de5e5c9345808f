package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/conorfennell/nibras/internal/domain"
)

// RedisConfig holds the Redis connection configuration.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Timeout   time.Duration
}

// DefaultRedisConfig returns the default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "nibras:",
		Timeout:   2 * time.Second,
	}
}

// RedisStore keeps each learner's progress document under its own key and
// the set of known learners under "<prefix>learners".
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRedisConfig().Timeout
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client, prefix: cfg.KeyPrefix, timeout: cfg.Timeout}, nil
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) learnerKey(learnerID int64) string {
	return r.prefix + "learner:" + strconv.FormatInt(learnerID, 10)
}

func (r *RedisStore) indexKey() string {
	return r.prefix + "learners"
}

// LoadProgress retrieves a learner's progress document. It returns (nil, nil)
// when the learner has none.
func (r *RedisStore) LoadProgress(learnerID int64) (*domain.Progress, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.learnerKey(learnerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load progress for learner %d: %w", learnerID, err)
	}

	var p domain.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode progress for learner %d: %w", learnerID, err)
	}
	return &p, nil
}

// SaveProgress writes a learner's progress document and indexes the learner.
func (r *RedisStore) SaveProgress(learnerID int64, p *domain.Progress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode progress for learner %d: %w", learnerID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.learnerKey(learnerID), raw, 0)
	pipe.SAdd(ctx, r.indexKey(), learnerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save progress for learner %d: %w", learnerID, err)
	}
	return nil
}

// LearnerIDs returns every indexed learner.
func (r *RedisStore) LearnerIDs() ([]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	members, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad learner id %q in index: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteLearner removes a learner's document and index entry.
func (r *RedisStore) DeleteLearner(learnerID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.learnerKey(learnerID))
	pipe.SRem(ctx, r.indexKey(), learnerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete learner %d: %w", learnerID, err)
	}
	return nil
}
