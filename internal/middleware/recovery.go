package middleware

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Recover turns panics into a 500 response that still carries the standard
// envelope.
func Recover(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered",
						zap.Any("panic", r),
						zap.ByteString("path", ctx.Path()))
					ctx.Response.Reset()
					ctx.Response.Header.SetContentType("application/json")
					ctx.SetStatusCode(fasthttp.StatusInternalServerError)
					ctx.SetBodyString(`{"message":"unexpected server error","data":null}`)
				}
			}()
			next(ctx)
		}
	}
}
