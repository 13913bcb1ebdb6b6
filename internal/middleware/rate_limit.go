package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"induction-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewIPRateLimiter allows maxRequests per window for each IP, with bursts up to maxRequests.
func NewIPRateLimiter(maxRequests int, window time.Duration) *IPRateLimiter {
	if maxRequests <= 0 {
		maxRequests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:    maxRequests,
		now:      time.Now,
	}
}

func (l *IPRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Sweep forgets IPs idle for longer than limiterIdleTTL.
func (l *IPRateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-limiterIdleTTL)
	removed := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

// Handler rejects requests over the limit with 429 and a Retry-After header.
func (l *IPRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limiter := l.get(c.IP())
		reservation := limiter.ReserveN(l.now(), 1)
		if !reservation.OK() {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
		}
		if delay := reservation.DelayFrom(l.now()); delay > 0 {
			reservation.CancelAt(l.now())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			logger.Get().Warn("Rate limit exceeded", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
		}
		return c.Next()
	}
}

// RateLimit is a convenience wrapper for NewIPRateLimiter(maxRequests, window).Handler().
func RateLimit(maxRequests int, window time.Duration) fiber.Handler {
	return NewIPRateLimiter(maxRequests, window).Handler()
}
