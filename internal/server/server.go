// Package server exposes the browse/resolve protocol and the content
// endpoint over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP front of the cache.
type Server struct {
	engine *gin.Engine
	addr   string
}

// New builds the router over a Registry.
func New(addr string, registry *Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger())

	api := NewAPI(registry)
	engine.GET("/health", api.health)
	engine.GET("/api/browse", api.browseRoot)
	engine.GET("/api/browse/*identifier", api.browse)
	engine.GET("/item_content/:identifier", api.itemContent)

	return &Server{engine: engine, addr: addr}
}

// Handler returns the underlying handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[http] listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
