package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const loginRateKeyPrefix = "rl:login:"

// LoginRateLimit limits login attempts per email, or per IP when the form has
// no email. Redis counters are shared across instances; without Redis an
// in-process token bucket is used. onLimit renders the rejection; when nil a
// plain 429 is returned.
func LoginRateLimit(cache *redis.Client, maxPerMin int, onLimit fiber.Handler) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	if onLimit == nil {
		onLimit = func(c *fiber.Ctx) error {
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
	}
	local := newLocalLimiter(maxPerMin)

	return func(c *fiber.Ctx) error {
		key := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
		if key == "" {
			key = c.IP()
		}

		if cache == nil {
			if !local.allow(key) {
				return onLimit(c)
			}
			return c.Next()
		}

		redisKey := loginRateKeyPrefix + key
		cnt, err := cache.Incr(c.UserContext(), redisKey).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), redisKey, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return onLimit(c)
		}
		return c.Next()
	}
}

// localLimiter keeps one token bucket per key. A bucket idle for a full
// window has refilled, so it is dropped and recreated on the next attempt.
type localLimiter struct {
	mu        sync.Mutex
	perMin    int
	now       func() time.Time
	lastSweep time.Time
	limiters  map[string]*trackedLimiter
}

type trackedLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLocalLimiter(perMin int) *localLimiter {
	return &localLimiter{perMin: perMin, now: time.Now, limiters: make(map[string]*trackedLimiter)}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= time.Minute {
		for k, t := range l.limiters {
			if now.Sub(t.seen) >= time.Minute {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	t, ok := l.limiters[key]
	if !ok {
		t = &trackedLimiter{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.limiters[key] = t
	}
	t.seen = now
	return t.lim.AllowN(now, 1)
}
