package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petabencana/sitioss-server/internal/cache"
)

// HeaderCache reports HIT or MISS on cacheable routes.
const HeaderCache = "X-Cache"

// cachedHeaders are replayed on a hit. Per-request headers (request id,
// CORS) are left to the live middleware chain.
var cachedHeaders = []string{"Content-Type", "ETag", "Last-Modified"}

// bodyRecorder tees the response body so a 200 can be stored.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves GET and HEAD requests for a route from group while
// the stored 200 response is younger than ttl. Other methods, non-200
// responses and a nil store pass through untouched. Write handlers drop the
// group with cache.Cache.Invalidate.
func ResponseCache(store *cache.Cache, group string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || ttl <= 0 {
			c.Next()
			return
		}
		m := c.Request.Method
		if m != http.MethodGet && m != http.MethodHead {
			c.Next()
			return
		}
		key := m + " " + c.Request.URL.RequestURI()

		if e, ok := store.Get(group, key); ok {
			h := c.Writer.Header()
			for k, vv := range e.Header {
				h[k] = append([]string(nil), vv...)
			}
			h.Set(HeaderCache, "HIT")
			c.Status(e.Status)
			_, _ = c.Writer.Write(e.Body)
			c.Abort()
			return
		}

		c.Header(HeaderCache, "MISS")
		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if rec.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		hdr := http.Header{}
		for _, k := range cachedHeaders {
			if v := rec.Header().Values(k); len(v) > 0 {
				hdr[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
			}
		}
		store.Set(group, key, cache.Entry{
			Status: http.StatusOK,
			Header: hdr,
			Body:   append([]byte(nil), rec.buf.Bytes()...),
		}, ttl)
	}
}
