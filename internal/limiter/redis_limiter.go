package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter keys in a shared Redis
const DefaultKeyPrefix = "boundary-checker:ratelimit"

// windowScript increments the counter of the current window and sets its
// expiry on first use, atomically.
var windowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter implements a fixed window limit shared by every instance
// connected to the same Redis.
//
// Key format: "{prefix}:{client}:{window number}"
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewRedisLimiter connects to Redis and verifies the connection
func NewRedisLimiter(cfg Config, log *logger.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	return NewRedisLimiterWithClient(client, cfg, log), nil
}

// NewRedisLimiterWithClient builds a limiter on an existing client
func NewRedisLimiterWithClient(client redis.UniversalClient, cfg Config, log *logger.Logger) *RedisLimiter {
	if log == nil {
		log = logger.NewDefault()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(max(cfg.Limit, 1)),
		window: max(cfg.Window, time.Millisecond),
		now:    time.Now,
		logger: log.WithComponent("RedisLimiter"),
	}
}

// Allow implements the Limiter interface.
// Redis errors fail open: an outage of the limiter must not stop lookups.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	window := l.now().UnixMilli() / l.window.Milliseconds()
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, window)

	count, err := windowScript.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		l.logger.Error().Err(err).Str("key", redisKey).Msg("Rate limit check failed, allowing request")
		return true
	}

	return count <= l.limit
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
