package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"turfbook/pkg/auth"
	apperrors "turfbook/pkg/errors"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitStore decides whether one more request for key fits in the window.
type RateLimitStore interface {
	Allow(ctx context.Context, key string) (bool, error)
	Stop()
}

type KeyExtractor func(r *http.Request) string

// PrincipalOrIPKey keys authenticated callers by principal id and everyone
// else by client address.
func PrincipalOrIPKey(r *http.Request) string {
	if p, ok := auth.FromContext(r.Context()); ok {
		return "principal:" + p.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RedisRateLimitStore is a fixed window counter shared by every API instance.
type RedisRateLimitStore struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimitStore(client *redis.Client, limit int, window time.Duration) *RedisRateLimitStore {
	return &RedisRateLimitStore{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (s *RedisRateLimitStore) windowKey(key string) string {
	bucket := s.now().UnixNano() / int64(s.window)
	return s.prefix + key + ":" + strconv.FormatInt(bucket, 10)
}

func (s *RedisRateLimitStore) Allow(ctx context.Context, key string) (bool, error) {
	k := s.windowKey(key)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}

	return incr.Val() <= int64(s.limit), nil
}

func (s *RedisRateLimitStore) Stop() {}

// InMemoryRateLimitStore keeps one token bucket per key.
type InMemoryRateLimitStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimitStore(limit int, window time.Duration) *InMemoryRateLimitStore {
	s := &InMemoryRateLimitStore{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		ttl:      window,
		stopCh:   make(chan struct{}),
	}

	go s.cleanup()

	return s
}

func (s *InMemoryRateLimitStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	s.mu.Unlock()

	return v.limiter.Allow(), nil
}

func (s *InMemoryRateLimitStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, v := range s.visitors {
				if time.Since(v.lastSeen) > s.ttl {
					delete(s.visitors, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryRateLimitStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// RateLimit fails open when the store is unreachable.
func RateLimit(store RateLimitStore, extractor KeyExtractor, log *logger.Logger) func(http.Handler) http.Handler {
	if extractor == nil {
		extractor = PrincipalOrIPKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractor(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := store.Allow(r.Context(), key)
			if err != nil {
				log.Warn("Rate limit store unavailable", "request_id", RequestID(r.Context()), "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				_ = httputil.WriteError(w, apperrors.TooManyRequests("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
