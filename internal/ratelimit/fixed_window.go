package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/logging"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter caps requests per key in fixed time windows shared
// through Redis.
type FixedWindowLimiter struct {
	name   string
	limit  int
	window time.Duration
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewFixedWindowLimiter builds a limiter named name (used in the Redis key).
func NewFixedWindowLimiter(client *redis.Client, name string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}
	return &FixedWindowLimiter{
		name:   name,
		limit:  limit,
		window: window,
		client: client,
		prefix: "storefront:ratelimit",
		now:    time.Now,
	}, nil
}

// Allow reports whether key is within quota. Redis failures are returned
// together with allowed=true; the caller decides how loud to be.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%s:%d", l.prefix, l.name, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return true, err
	}
	return count <= int64(l.limit), nil
}

// KeyFunc extracts the limiter key of a request.
type KeyFunc func(c *gin.Context) string

// ClientIP keys requests by remote address.
func ClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// Middleware rejects requests over quota with 429. A nil limiter passes
// everything through.
func Middleware(l *FixedWindowLimiter, key KeyFunc) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if key == nil {
		key = ClientIP
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		allowed, err := l.Allow(ctx, key(c))
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "rate limiter unavailable", "limiter", l.name, "error", err)
		}
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.Error(http.StatusTooManyRequests, "Prea multe cereri. Încercați din nou în curând."))
			return
		}
		c.Next()
	}
}
