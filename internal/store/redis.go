package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/teemow/ohq-bluejeans/internal/backend"
)

const (
	recordPrefix = "record:"
	lockPrefix   = "lock:"

	// DefaultLockRetry is the pause between lock attempts.
	DefaultLockRetry = 50 * time.Millisecond

	// DefaultLockTTL is how long a lock outlives a holder that stopped
	// extending it.
	DefaultLockTTL = 30 * time.Second
)

// ErrLockLost is returned by unlock when the lock expired or was taken over.
var ErrLockLost = errors.New("lock no longer held")

// RedisStore keeps records as JSON strings in Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store whose keys start with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + recordPrefix + key
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (backend.Metadata, bool, error) {
	if key == "" {
		return backend.Metadata{}, false, ErrEmptyKey
	}
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return backend.Metadata{}, false, nil
		}
		return backend.Metadata{}, false, fmt.Errorf("load record: %w", err)
	}
	var md backend.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return backend.Metadata{}, false, fmt.Errorf("decode record: %w", err)
	}
	return md, true, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, md backend.Metadata) error {
	if key == "" {
		return ErrEmptyKey
	}
	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("persist record: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// extendScript resets the lock TTL only if it still carries our token.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a lock shared by every process using the same Redis.
// A held lock is extended every ttl/3, so it only expires ttl after its
// holder dies.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker whose keys start with prefix.
// A non-positive ttl selects DefaultLockTTL.
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, retry: DefaultLockRetry}
}

// Lock implements Locker.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	redisKey := l.prefix + lockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(redisKey, token, stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stop) })
		<-done

		n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to unlock %s: %w", key, err)
		}
		if n == 0 {
			return fmt.Errorf("failed to unlock %s: %w", key, ErrLockLost)
		}
		return nil
	}, nil
}

// keepAlive extends the lock until stop is closed or the lock is gone.
func (l *RedisLocker) keepAlive(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	if interval <= 0 {
		interval = l.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extendScript.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int()
		cancel()
		if err != nil {
			// Transient errors are retried on the next tick.
			slog.Warn("failed to extend record lock", "key", redisKey, "error", err)
			continue
		}
		if n == 0 {
			slog.Warn("record lock lost", "key", redisKey)
			return
		}
	}
}

// Ping checks Redis connectivity.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
