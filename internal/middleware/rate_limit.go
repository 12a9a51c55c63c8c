package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/store-metrics/internal/config"
	"github.com/deppfellow/store-metrics/internal/errs"
	"github.com/deppfellow/store-metrics/internal/metrics"
	"github.com/deppfellow/store-metrics/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits metric requests per client IP and records
// every rejection.
type RateLimitMiddleware struct {
	server *server.Server
	store  middleware.RateLimiterStore
}

// NewRateLimitMiddleware picks the counter store: Redis when a client is
// configured, so replicas share one budget, otherwise in-process memory.
func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	memory := NewMemoryStore(s.Config.RateLimit)

	var store middleware.RateLimiterStore = memory
	if s.Redis != nil {
		store = NewRedisStore(s.Redis, s.Config.RateLimit, memory, s.Logger)
	}

	return &RateLimitMiddleware{
		server: s,
		store:  store,
	}
}

// NewMemoryStore converts requests-per-window into echo's token bucket.
func NewMemoryStore(cfg config.RateLimitConfig) *middleware.RateLimiterMemoryStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		Burst:     cfg.Requests,
		ExpiresIn: 3 * time.Minute,
	})
}

// Limit returns the echo rate limiter bound to the selected store.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r.store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())

			GetLogger(c).Warn().
				Str("identifier", identifier).
				Msg("rate limit exceeded")

			return errs.NewTooManyRequestsError("Rate limit exceeded, please retry later")
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.NewBadRequestError("Could not identify client", false, nil, nil)
		},
	})
}

// RecordRateLimitHit counts a rejection in Prometheus and, when the agent
// runs, as a New Relic custom event.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	metrics.RecordRateLimitHit(endpoint)

	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}

// RedisCommandTimeout bounds one counter round trip.
const RedisCommandTimeout = 100 * time.Millisecond

// RedisStore is a fixed-window counter shared through Redis: one key per
// client and window, INCR on every request, EXPIRE after the window.
//
// When Redis fails the decision falls back to the local store.
type RedisStore struct {
	client   redis.Cmdable
	limit    int64
	window   time.Duration
	prefix   string
	fallback middleware.RateLimiterStore
	log      *zerolog.Logger
	now      func() time.Time
}

func NewRedisStore(client redis.Cmdable, cfg config.RateLimitConfig, fallback middleware.RateLimiterStore, log *zerolog.Logger) *RedisStore {
	return &RedisStore{
		client:   client,
		limit:    int64(cfg.Requests),
		window:   cfg.Window,
		prefix:   config.ServiceName + ":ratelimit",
		fallback: fallback,
		log:      log,
		now:      time.Now,
	}
}

// key names the counter of identifier for the window containing t.
func (s *RedisStore) key(identifier string, t time.Time) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, identifier, t.UnixNano()/int64(s.window))
}

// Allow implements middleware.RateLimiterStore.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), RedisCommandTimeout)
	defer cancel()

	key := s.key(identifier, s.now())

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)

	if _, err := pipe.Exec(ctx); err != nil {
		if s.log != nil {
			s.log.Warn().Err(err).Msg("redis rate limit store failed, using local store")
		}
		if s.fallback != nil {
			return s.fallback.Allow(identifier)
		}
		return true, nil
	}

	return incr.Val() <= s.limit, nil
}
