// Package server exposes risk assessment and recommendation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/recommend"
	"github.com/toyinlola/pkgrisk/pkg/report"
	"github.com/toyinlola/pkgrisk/pkg/scorer"
)

// MaxBatchSize caps the names accepted by the report endpoint.
const MaxBatchSize = 100

const shutdownTimeout = 10 * time.Second

// Server holds the handlers' dependencies.
type Server struct {
	assessor    *scorer.Assessor
	recommender *recommend.Recommender
	provider    interfaces.MetadataProvider
	generator   *report.Generator
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithProvider sets the metadata provider used for by-name lookups and
// candidate discovery. Without one those endpoints answer 503.
func WithProvider(p interfaces.MetadataProvider) Option {
	return func(s *Server) {
		s.provider = p
	}
}

// WithRecommender replaces the default recommender.
func WithRecommender(r *recommend.Recommender) Option {
	return func(s *Server) {
		s.recommender = r
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server. A nil assessor uses the embedded tables.
func New(assessor *scorer.Assessor, opts ...Option) *Server {
	if assessor == nil {
		assessor = scorer.NewAssessor(nil, nil, nil, nil)
	}
	s := &Server{
		assessor:  assessor,
		generator: report.NewGenerator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recommender == nil {
		s.recommender = recommend.New(assessor, nil, recommend.WithLogger(s.logger))
	}
	return s
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(s.recovery(), s.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/assess", s.assess)
		v1.POST("/recommend", s.recommend)
		v1.GET("/packages/:name/risk", s.packageRisk)
		v1.POST("/reports", s.batchReport)
	}
	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listening on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
