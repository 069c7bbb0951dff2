// Package server exposes a packing Session over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/piwi3910/BoxFit/internal/session"
	"github.com/piwi3910/BoxFit/internal/store"
)

// Server serves the HTTP API. The store is optional; without one, catalogs
// and runs live only in the session.
type Server struct {
	session *session.Session
	store   *store.Store
	logger  *slog.Logger
	seed    int64
	router  *gin.Engine
}

// New builds a Server and registers its routes. seed is used for strategy
// comparisons and demo products; 0 draws fresh entropy.
func New(sess *session.Session, st *store.Store, logger *slog.Logger, seed int64) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		session: sess,
		store:   st,
		logger:  logger,
		seed:    seed,
		router:  gin.Default(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/boxes", s.handleListBoxes)
	api.POST("/boxes", s.handleAddBox)
	api.DELETE("/boxes/:id", s.handleDeleteBox)

	api.GET("/products", s.handleListProducts)
	api.POST("/products", s.handleAddProducts)
	api.POST("/products/random", s.handleRandomProducts)

	api.PUT("/selection", s.handleSetSelection)
	api.POST("/pack", s.handlePack)

	api.GET("/session", s.handleSnapshot)
	api.POST("/session/next", s.handleNext)
	api.POST("/session/previous", s.handlePrevious)
	api.POST("/session/reset", s.handleReset)

	api.GET("/compare/:boxId", s.handleCompare)
	api.GET("/runs/:id", s.handleGetRun)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) newRand() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (s *Server) compareSeed() int64 {
	if s.seed == 0 {
		return time.Now().UnixNano()
	}
	return s.seed
}
