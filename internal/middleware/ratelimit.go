package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// слайдинг-окно на sorted set: атомарно через Lua, чтобы проверка и
// запись не разъезжались между инстансами.
var rateLimitScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', key .. ':seq')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', key .. ':seq', expire_seconds)
		return 1
	end
	return 0
`)

// RateLimit ограничивает маршрут бюджетом limit запросов за window на
// клиента (IP + путь). Отказ редиса не роняет запрос: лимитер
// пропускает и пишет в лог.
func RateLimit(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}
		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()
		now := time.Now()

		allowed, err := rateLimitScript.Run(c.Request.Context(), client,
			[]string{key},
			now.UnixMilli(),
			now.Add(-window).UnixMilli(),
			limit,
			window.Milliseconds(),
		).Int64()
		if err != nil {
			log.Printf("[ratelimit] redis error for %s: %v", key, err)
			c.Next()
			return
		}
		if allowed != 1 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too Many Requests"})
			return
		}
		c.Next()
	}
}
