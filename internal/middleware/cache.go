package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// ResponseMeta accumulates per-request metadata surfaced in the response
// envelope of the cached listing endpoints.
type ResponseMeta struct {
	start    time.Time
	cacheHit *bool
}

// WithResponseMeta attaches a ResponseMeta to every request.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &ResponseMeta{start: time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if meta := metaFrom(c); meta != nil {
		meta.cacheHit = &hit
	}
}

// ExtractMeta renders the accumulated metadata as an envelope meta map.
// Returns nil when no metadata middleware ran.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFrom(c)
	if meta == nil {
		return nil
	}

	out := map[string]interface{}{
		"processing_time_ms": time.Since(meta.start).Milliseconds(),
	}
	if meta.cacheHit != nil {
		out["cache_hit"] = *meta.cacheHit
	}
	return out
}

func metaFrom(c *gin.Context) *ResponseMeta {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(*ResponseMeta); ok {
			return meta
		}
	}
	return nil
}
