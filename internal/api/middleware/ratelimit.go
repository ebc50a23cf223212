package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
)

type slidingWindowCounter struct {
	mu         sync.Mutex
	timestamps []int64
}

// RateLimit keeps a sliding window per key. key is "ip" or "user_id";
// anything else is used verbatim with {ip} and {user_id} placeholders.
// Each call owns its own store, so two routes limiting by "user_id" count
// independently.
func RateLimit(key string, limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	var store sync.Map

	return func(c *gin.Context) {
		rawKey := resolveRateLimitKey(c, key)

		entryAny, _ := store.LoadOrStore(rawKey, &slidingWindowCounter{
			timestamps: make([]int64, 0, limit),
		})
		entry := entryAny.(*slidingWindowCounter)

		now := time.Now().UnixNano()
		cutoff := now - window.Nanoseconds()

		entry.mu.Lock()
		next := entry.timestamps[:0]
		for _, ts := range entry.timestamps {
			if ts > cutoff {
				next = append(next, ts)
			}
		}
		entry.timestamps = next

		if len(entry.timestamps) >= limit {
			entry.mu.Unlock()
			response.Fail(c, 429, response.ErrInternal, "too many requests")
			c.Abort()
			return
		}

		entry.timestamps = append(entry.timestamps, now)
		entry.mu.Unlock()

		c.Next()
	}
}

func resolveRateLimitKey(c *gin.Context, keyTemplate string) string {
	userID := ""
	if principal, ok := GetPrincipal(c); ok {
		userID = principal.ID.String()
	}

	switch keyTemplate {
	case "", "ip":
		return "ip:" + c.ClientIP()
	case "user_id":
		if userID == "" {
			return "user_id:anonymous:" + c.ClientIP()
		}
		return "user_id:" + userID
	default:
		replaced := strings.ReplaceAll(keyTemplate, "{ip}", c.ClientIP())
		return strings.ReplaceAll(replaced, "{user_id}", userID)
	}
}
