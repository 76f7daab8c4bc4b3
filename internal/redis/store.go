package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
)

const scanBatchSize = 100

// Store implements domain.Store on a Redis connection.
type Store struct {
	rdb     *goredis.Client
	breaker *gobreaker.CircuitBreaker
}

func NewStore(rdb *goredis.Client) *Store {
	settings := gobreaker.Settings{
		Name:    "redis-poll-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Redis store breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Store{
		rdb:     rdb,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.rdb.Set(ctx, key, value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.rdb.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, prefix string) ([]domain.KV, error) {
	var (
		out    []domain.KV
		cursor uint64
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan %q: %w", prefix, err)
		}
		if len(keys) > 0 {
			values, err := s.rdb.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, fmt.Errorf("redis mget: %w", err)
			}
			for i, key := range keys {
				raw, ok := values[i].(string)
				if !ok {
					// Key expired between SCAN and MGET.
					continue
				}
				out = append(out, domain.KV{Key: key, Value: []byte(raw)})
			}
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}
