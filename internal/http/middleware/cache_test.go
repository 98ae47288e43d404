package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petabencana/sitioss-server/internal/cache"
)

func TestResponseCache_HitMissInvalidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := cache.New()
	calls := 0

	r := gin.New()
	r.Use(RequestID())
	cached := ResponseCache(store, cache.GroupFloodsStates, time.Minute)
	r.GET("/floods/states", cached, func(c *gin.Context) {
		calls++
		c.Header("ETag", `W/"v1"`)
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/floods/broken", cached, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error"})
	})

	first := serve(r, http.MethodGet, "/floods/states?admin=ID-JK", nil)
	if first.Header().Get(HeaderCache) != "MISS" || calls != 1 {
		t.Fatalf("first: %s calls=%d", first.Header().Get(HeaderCache), calls)
	}
	second := serve(r, http.MethodGet, "/floods/states?admin=ID-JK", nil)
	if second.Header().Get(HeaderCache) != "HIT" || calls != 1 {
		t.Fatalf("second: %s calls=%d", second.Header().Get(HeaderCache), calls)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("body mismatch: %q vs %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("ETag") != `W/"v1"` || second.Header().Get("Content-Type") == "" {
		t.Fatalf("headers not replayed: %v", second.Header())
	}
	if second.Header().Get(requestIDHeader) == first.Header().Get(requestIDHeader) {
		t.Fatalf("request id must not be replayed from cache")
	}

	// Distinct query strings are distinct entries.
	serve(r, http.MethodGet, "/floods/states?admin=ID-JB", nil)
	if calls != 2 {
		t.Fatalf("query not part of key, calls=%d", calls)
	}

	store.Invalidate(cache.GroupFloodsStates)
	if w := serve(r, http.MethodGet, "/floods/states?admin=ID-JK", nil); w.Header().Get(HeaderCache) != "MISS" || calls != 3 {
		t.Fatalf("after invalidate: %s calls=%d", w.Header().Get(HeaderCache), calls)
	}

	serve(r, http.MethodGet, "/floods/broken", nil)
	serve(r, http.MethodGet, "/floods/broken", nil)
	if calls != 5 {
		t.Fatalf("non-200 must not be cached, calls=%d", calls)
	}
}

func TestResponseCache_DisabledAndUnsafeMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	h := func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	}

	r := gin.New()
	r.GET("/off", ResponseCache(nil, cache.GroupCards, time.Minute), h)
	r.PUT("/cards/:cardId", ResponseCache(cache.New(), cache.GroupCards, time.Minute), h)

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodGet, "/off", nil); w.Header().Get(HeaderCache) != "" {
			t.Fatalf("disabled cache set %s", HeaderCache)
		}
		serve(r, http.MethodPut, "/cards/c1", nil)
	}
	if calls != 4 {
		t.Fatalf("calls = %d", calls)
	}
}
