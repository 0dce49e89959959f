package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"spendlog/internal/store"
)

// Options configures the Redis connection.
type Options struct {
	Addrs     []string
	Password  string
	Cluster   bool
	Namespace string
}

// Store keeps ledger keys under "<namespace>:<key>" with no expiry.
type Store struct {
	client    goredis.UniversalClient // works with both single and cluster
	namespace string
}

var (
	_ store.KV     = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)

func New(opts Options) (*Store, error) {
	if len(opts.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	var rdb goredis.UniversalClient
	if opts.Cluster && len(opts.Addrs) > 1 {
		rdb = goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:    opts.Addrs,
			Password: opts.Password,
		})
	} else {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     opts.Addrs[0],
			Password: opts.Password,
			DB:       0,
		})
	}

	return NewWithClient(rdb, opts.Namespace), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, namespace string) *Store {
	return &Store{client: client, namespace: strings.TrimSuffix(namespace, ":")}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}
