// internal/cache/cache.go
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "showcase:cache"

type skipKey struct{}

// Cache stores successful JSON responses in Redis.
type Cache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func New(rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

// Key builds the cache key of a response. Values are case-insensitive.
func Key(prefix string, values ...string) string {
	parts := make([]string, 0, len(values)+2)
	parts = append(parts, keyPrefix, prefix)
	for _, v := range values {
		parts = append(parts, strings.ToLower(v))
	}
	return strings.Join(parts, ":")
}

// Get returns the cached body for key. A miss is not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return b, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.rdb.Set(ctx, key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Del drops cached responses. Missing keys are ignored.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}

// Skip keeps the current response out of the cache.
func Skip(ctx context.Context) {
	if flag, ok := ctx.Value(skipKey{}).(*bool); ok {
		*flag = true
	}
}

// KeyFunc extracts the values identifying a cached response. ok is false
// when the request cannot be cached.
type KeyFunc func(r *http.Request) (values []string, ok bool)

// URLParams keys responses by chi route parameters.
func URLParams(names ...string) KeyFunc {
	return func(r *http.Request) ([]string, bool) {
		return collect(names, func(n string) string { return chi.URLParam(r, n) })
	}
}

// Query keys responses by query values.
func Query(names ...string) KeyFunc {
	return func(r *http.Request) ([]string, bool) {
		q := r.URL.Query()
		return collect(names, q.Get)
	}
}

func collect(names []string, get func(string) string) ([]string, bool) {
	values := make([]string, 0, len(names))
	for _, n := range names {
		v := get(n)
		if v == "" {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// Middleware serves cached responses for prefix and stores successful ones.
// Redis failures degrade to an uncached request.
func (c *Cache) Middleware(prefix string, keyOf KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			values, ok := keyOf(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			key := Key(prefix, values...)

			body, hit, err := c.Get(r.Context(), key)
			if err != nil {
				c.logger.Warn("Cache lookup failed", "key", key, "error", err)
			}
			if hit {
				cacheRequests.WithLabelValues(prefix, "hit").Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}
			cacheRequests.WithLabelValues(prefix, "miss").Inc()

			skip := false
			ctx := context.WithValue(r.Context(), skipKey{}, &skip)
			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)

			next.ServeHTTP(ww, r.WithContext(ctx))

			if skip || ww.Status() != http.StatusOK || buf.Len() == 0 {
				return
			}
			if err := c.Set(r.Context(), key, buf.Bytes()); err != nil {
				c.logger.Warn("Cache store failed", "key", key, "error", err)
			}
		})
	}
}
