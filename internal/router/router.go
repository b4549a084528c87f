package router

import (
	"strings"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/cheliu754/CS409-MP3/api/handler"
)

type Handlers struct {
	User   *apiHandler.UserHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

// New builds the route table. Resource routes mount under basePath.
func New(handlers Handlers, basePath string) *router.Router {
	r := router.New()

	base := strings.TrimSuffix(basePath, "/")

	r.GET("/health", handlers.Health.Check)

	r.GET(base+"/users", handlers.User.List)
	r.POST(base+"/users", handlers.User.Create)
	r.GET(base+"/users/{id}", handlers.User.Get)
	r.PUT(base+"/users/{id}", handlers.User.Update)
	r.DELETE(base+"/users/{id}", handlers.User.Delete)

	r.GET(base+"/tasks", handlers.Task.List)
	r.POST(base+"/tasks", handlers.Task.Create)
	r.GET(base+"/tasks/{id}", handlers.Task.Get)
	r.PUT(base+"/tasks/{id}", handlers.Task.Update)
	r.DELETE(base+"/tasks/{id}", handlers.Task.Delete)

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString(`{"message":"route not found","data":null}`)
	}
	r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		ctx.SetBodyString(`{"message":"method not allowed","data":null}`)
	}

	return r
}
