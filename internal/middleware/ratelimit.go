package middleware

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// RateLimit applies a fixed-window per-client limit backed by redis.
// The limiter fails open: if redis is unreachable the request proceeds.
func RateLimit(client *redislib.Client, limit int, window time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if client == nil || limit <= 0 {
				next(ctx)
				return
			}

			bucket := time.Now().Unix() / int64(window.Seconds())
			key := fmt.Sprintf("ratelimit:%s:%d", ctx.RemoteIP(), bucket)

			rctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			count, err := client.Incr(rctx, key).Result()
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Error(err))
				next(ctx)
				return
			}
			if count == 1 {
				client.Expire(rctx, key, window)
			}
			if count > int64(limit) {
				ctx.Response.Header.SetContentType("application/json")
				ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
				ctx.SetBodyString(`{"message":"rate limit exceeded","data":null}`)
				return
			}
			next(ctx)
		}
	}
}
