package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(2, 0, nil)
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed: %d", rl.burst)
	}
	if rl.keyFn == nil {
		t.Fatalf("nil keyFn must default to PrincipalKey")
	}
	if rl.limiter("k") != rl.limiter("k") {
		t.Fatalf("bucket not reused")
	}
	if rl.Len() != 1 {
		t.Fatalf("len = %d", rl.Len())
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	rl.sweepAt = 3

	rl.limiter("old")
	now = now.Add(rl.ttl)
	rl.limiter("fresh") // sweepN=2
	rl.limiter("fresh") // sweepN=3, sweep runs
	if rl.Len() != 1 {
		t.Fatalf("idle bucket not evicted, len=%d", rl.Len())
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 2, nil)

	r := gin.New()
	r.Use(RequestID())
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.GET("/floods", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodGet, "/floods", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w := serve(r, http.MethodGet, "/floods", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" || w.Header().Get("Retry-After") == "1" {
		t.Fatalf("Retry-After should reflect the slow refill, got %q", w.Header().Get("Retry-After"))
	}
	if w := serve(r, http.MethodGet, "/floods", map[string]string{"X-Replay": "1"}); w.Code != http.StatusOK {
		t.Fatalf("replay must bypass, got %d", w.Code)
	}
}

func TestRateLimiter_ZeroRateDisables(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, nil)
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		if w := serve(r, http.MethodGet, "/x", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d limited", i)
		}
	}
}
