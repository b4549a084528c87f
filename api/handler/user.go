package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/cheliu754/CS409-MP3/api/transport"
	"github.com/cheliu754/CS409-MP3/internal/query"
	"github.com/cheliu754/CS409-MP3/pkg/httpcontext"
	userUC "github.com/cheliu754/CS409-MP3/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc *userUC.UseCase
}

func NewUserHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// List handles GET /users with the full query mini-language. Users have no
// default limit cap.
func (h *UserHandler) List(ctx *fasthttp.RequestCtx) {
	opts, err := query.Parse(listParams(ctx), 0)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	data, err := h.uc.List(stdCtx, opts)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, transport.MsgOK, data)
}

// Create handles POST /users.
func (h *UserHandler) Create(ctx *fasthttp.RequestCtx) {
	in, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusCreated, transport.MsgCreated, created)
}

// Get handles GET /users/:id, honoring select.
func (h *UserHandler) Get(ctx *fasthttp.RequestCtx) {
	proj, err := selectProjection(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	doc, err := h.uc.Get(stdCtx, pathID(ctx), proj)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, transport.MsgOK, doc)
}

// Update handles PUT /users/:id with full-replace semantics.
func (h *UserHandler) Update(ctx *fasthttp.RequestCtx) {
	in, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Replace(stdCtx, pathID(ctx), in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, transport.MsgOK, updated)
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, pathID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, transport.MsgDeleted, nil)
}

func (h *UserHandler) parseUser(ctx *fasthttp.RequestCtx) (userUC.Input, bool) {
	var req transport.UserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondData(ctx, http.StatusBadRequest, "invalid JSON payload", nil)
		return userUC.Input{}, false
	}
	return userUC.Input{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: req.PendingTasks,
	}, true
}
