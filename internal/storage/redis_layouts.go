package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "circle-packer:layouts"

// RedisLayoutStore keeps layouts as JSON strings with an optional TTL and
// indexes their IDs in a sorted set scored by creation time.
type RedisLayoutStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	clock  func() time.Time
}

// RedisOption configures a RedisLayoutStore.
type RedisOption func(*RedisLayoutStore)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisLayoutStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires layouts after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisLayoutStore) {
		s.ttl = ttl
	}
}

// NewRedisLayoutStore wraps an existing client.
func NewRedisLayoutStore(client redis.UniversalClient, opts ...RedisOption) *RedisLayoutStore {
	s := &RedisLayoutStore{
		client: client,
		prefix: defaultRedisPrefix,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks connectivity.
func (s *RedisLayoutStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisLayoutStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisLayoutStore) indexKey() string {
	return s.prefix + ":index"
}

func (s *RedisLayoutStore) Save(ctx context.Context, l Layout) (Layout, error) {
	l, err := prepareLayout(l, s.clock())
	if err != nil {
		return Layout{}, err
	}

	data, err := json.Marshal(l)
	if err != nil {
		return Layout{}, fmt.Errorf("encode layout: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(l.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(l.CreatedAt.UnixNano()), Member: l.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return Layout{}, fmt.Errorf("save layout: %w", err)
	}
	return l, nil
}

func (s *RedisLayoutStore) Get(ctx context.Context, id string) (Layout, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Layout{}, ErrLayoutNotFound
	}
	if err != nil {
		return Layout{}, fmt.Errorf("get layout: %w", err)
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// List returns every live layout. IDs whose value expired are pruned from
// the index.
func (s *RedisLayoutStore) List(ctx context.Context) ([]Layout, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	if len(ids) == 0 {
		return []Layout{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}

	out := make([]Layout, 0, len(values))
	var expired []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var l Layout
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("decode layout %s: %w", ids[i], err)
		}
		out = append(out, l)
	}
	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("prune layout index: %w", err)
		}
	}

	sortLayouts(out)
	return out, nil
}

func (s *RedisLayoutStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if del.Val() == 0 {
		return ErrLayoutNotFound
	}
	return nil
}
