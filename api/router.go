package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/beka-birhanu/vinom-maze/api/i"
	"github.com/gin-gonic/gin"
)

// Router manages the HTTP server and the controllers mounted on it.
type Router struct {
	engine *gin.Engine
	server *http.Server
}

// Config holds configuration settings for creating a new Router instance.
type Config struct {
	Addr        string // Address to listen on
	BaseURL     string // Base URL for API routes
	Controllers []i.Controller
}

// NewRouter creates a new Router instance with the given configuration and
// mounts every controller.
//
// Routes are grouped as follows:
// - API routes: under BaseURL + "/v1".
// - Root routes: under "/", for redirects and the realtime stream.
func NewRouter(config Config) *Router {
	engine := gin.Default()

	api := engine.Group(config.BaseURL)
	{
		v1 := api.Group("/v1")
		for _, c := range config.Controllers {
			c.RegisterAPI(v1)
		}
	}

	root := engine.Group("/")
	for _, c := range config.Controllers {
		c.RegisterRoot(root)
	}

	return &Router{
		engine: engine,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: engine,
		},
	}
}

// Handler exposes the routes, e.g. for httptest servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server and blocks until it stops.
// A server stopped through Shutdown is not an error.
func (r *Router) Run() error {
	err := r.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests.
// Hijacked connections, such as websocket streams, are not waited for.
func (r *Router) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}
