package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/cheliu754/CS409-MP3/api/transport"
	"github.com/cheliu754/CS409-MP3/internal/query"
	"github.com/cheliu754/CS409-MP3/pkg/httpcontext"
	taskUC "github.com/cheliu754/CS409-MP3/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
	// defaultLimit caps list responses when the request has no explicit limit.
	defaultLimit int
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, defaultLimit int) *TaskHandler {
	return &TaskHandler{
		baseHandler:  newBaseHandler(adapter, logger),
		uc:           uc,
		defaultLimit: defaultLimit,
	}
}

// List handles GET /tasks. Unlike users, tasks default to a capped limit;
// an explicit limit, even a larger one, is honored as given.
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	opts, err := query.Parse(listParams(ctx), h.defaultLimit)
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

// Create handles POST /tasks.
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	in, ok := h.parseTask(ctx)
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

// Get handles GET /tasks/:id, honoring select.
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
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

// Update handles PUT /tasks/:id with full-replace semantics.
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	in, ok := h.parseTask(ctx)
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

// Delete handles DELETE /tasks/:id.
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, pathID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, transport.MsgDeleted, nil)
}

func (h *TaskHandler) parseTask(ctx *fasthttp.RequestCtx) (taskUC.Input, bool) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondData(ctx, http.StatusBadRequest, "invalid JSON payload", nil)
		return taskUC.Input{}, false
	}

	deadline, hasDeadline, err := req.DeadlineTime()
	if err != nil {
		h.respondError(ctx, err)
		return taskUC.Input{}, false
	}

	return taskUC.Input{
		Name:             req.Name,
		Description:      req.Description,
		Deadline:         deadline,
		HasDeadline:      hasDeadline,
		Completed:        req.Completed,
		AssignedUser:     req.AssignedUser,
		AssignedUserName: req.AssignedUserName,
	}, true
}
