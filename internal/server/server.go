// Package server exposes the feed ranking over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/job-feed/internal/feed"
	"github.com/spigell/job-feed/internal/jobs"
	"github.com/spigell/job-feed/internal/logger"
	"github.com/spigell/job-feed/internal/ranking"
)

const (
	RankPath    = "/api/v1/feed/rank"
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"

	shutdownTimeout = 10 * time.Second
)

// RankRequest is the body of a ranking call. Profile stays loosely typed
// so an explicit null can be told apart from a malformed object.
type RankRequest struct {
	Profile any   `json:"profile"`
	Jobs    []any `json:"jobs"`
}

type RankResponse struct {
	Jobs  []ranking.ScoredJob `json:"jobs"`
	Count int                 `json:"count"`
}

type Server struct {
	feed     *feed.Service
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	engine   *gin.Engine
}

func New(service *feed.Service, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	s := &Server{
		feed:     service,
		gatherer: gatherer,
		logger:   logger.WithFields(log, zap.String("component", "server")),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), RequestLogger(s.logger))

	engine.POST(RankPath, s.rank)
	engine.GET(HealthPath, s.health)
	if gatherer != nil {
		engine.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	s.engine = engine
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
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

	s.logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) rank(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, fmt.Errorf("%w: %v", jobs.ErrInvalidInput, err))
		return
	}

	minScore, top, err := trimParams(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	if req.Jobs == nil {
		s.badRequest(c, fmt.Errorf("%w: jobs is required", jobs.ErrInvalidInput))
		return
	}

	list, err := jobs.DecodeJobs(req.Jobs)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	profile, err := jobs.DecodeProfile(req.Profile)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	scored, err := s.feed.Rank(c.Request.Context(), list, profile)
	if err != nil {
		s.logger.Error("ranking failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ranking failed"})
		return
	}

	scored = feed.Trim(scored, minScore, top)
	c.JSON(http.StatusOK, RankResponse{Jobs: scored, Count: len(scored)})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	if !errors.Is(err, jobs.ErrInvalidInput) {
		err = fmt.Errorf("%w: %v", jobs.ErrInvalidInput, err)
	}

	s.logger.Debug("rejecting request", zap.String("request_id", GetRequestID(c)), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// trimParams reads the optional min_score and top query parameters.
func trimParams(c *gin.Context) (int, int, error) {
	var values [2]int
	for i, name := range []string{"min_score", "top"} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("%w: %s must be a non-negative integer", jobs.ErrInvalidInput, name)
		}
		values[i] = v
	}

	return values[0], values[1], nil
}
