package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/cheliu754/CS409-MP3/api/transport"
	"github.com/cheliu754/CS409-MP3/domain"
	"github.com/cheliu754/CS409-MP3/internal/query"
	"github.com/cheliu754/CS409-MP3/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondData(ctx *fasthttp.RequestCtx, status int, message string, data interface{}) {
	h.respondJSON(ctx, status, transport.NewEnvelope(message, data))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		message = "unexpected server error"
	}
	h.respondJSON(ctx, status, transport.NewEnvelope(message, nil))
}

func mapError(err error) int {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		// uniqueness violations are validation failures to the caller
		return http.StatusBadRequest
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// listParams collects the raw list-query values; fasthttp has already
// percent-decoded them.
func listParams(ctx *fasthttp.RequestCtx) query.Params {
	args := ctx.QueryArgs()
	return query.Params{
		Where:  string(args.Peek("where")),
		Sort:   string(args.Peek("sort")),
		Select: string(args.Peek("select")),
		Skip:   string(args.Peek("skip")),
		Limit:  string(args.Peek("limit")),
		Count:  string(args.Peek("count")),
	}
}

// selectProjection parses the select parameter of single-resource endpoints.
func selectProjection(ctx *fasthttp.RequestCtx) (*query.Projection, error) {
	raw := string(ctx.QueryArgs().Peek("select"))
	if raw == "" {
		return nil, nil
	}
	return query.ParseProjection(raw)
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}
