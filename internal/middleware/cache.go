package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/court-club-reservation/internal/config"
)

// cachedResponse is the Redis value for one cached read: status, headers and
// body of a previously served 200.  Stored as JSON; the body round-trips
// through base64, which is fine at availability-grid sizes.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into a buffer while writing through
// to the client.  Once more than limit bytes pass through it stops
// buffering and marks the response as too large to cache; a truncated body
// must never be stored.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (br *bodyRecorder) WriteHeader(code int) {
	br.status = code
	br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
	if !br.overflow {
		if br.limit > 0 && int64(br.buf.Len()+len(b)) > br.limit {
			br.overflow = true
			br.buf.Reset()
		} else {
			br.buf.Write(b)
		}
	}
	return br.ResponseWriter.Write(b)
}

// cacheKey derives the Redis key from route and query.  Availability
// requests differ only in their court id and date query, so the tail is
// hashed to keep key length flat across arbitrary query strings.
func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// NewRedisCache returns a middleware that serves repeated court-catalog and
// availability reads from Redis for a short TTL.  Those two GETs dominate
// traffic during peak booking hours while their answers change on every
// hold and confirm, so the TTL is seconds, not minutes: clients holding a
// stale grid are corrected by the slot events they receive in parallel.
// Only 200 responses within the configured body limit are stored, and a
// disabled config or missing Redis client turns the middleware into a
// pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var entry cachedResponse
				if json.Unmarshal(raw, &entry) == nil && entry.Status != 0 {
					for k, vals := range entry.Header {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(entry.Status)
					if len(entry.Body) > 0 {
						_, _ = c.Response().Write(entry.Body)
					}
					return nil
				}
				// Unreadable entry: fall through and let the store below
				// overwrite it.
			}

			br := &bodyRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = br
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// Conflict and validation failures must stay uncached, so
			// anything but a complete 200 is skipped.
			if br.status != http.StatusOK || br.overflow {
				return nil
			}
			entry := cachedResponse{
				Status: br.status,
				Header: c.Response().Header().Clone(),
				Body:   br.buf.Bytes(),
			}
			if raw, err := json.Marshal(entry); err == nil {
				_ = rdb.SetEx(ctx, key, raw, cfg.TTL).Err()
			}
			return nil
		}
	}
}
