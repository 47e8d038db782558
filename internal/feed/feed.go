// Package feed builds a candidate's job feed on top of the ranking engine.
// It owns everything the engine must not do: reading the clock, logging and
// recording metrics.
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-feed/internal/jobs"
	"github.com/spigell/job-feed/internal/logger"
	"github.com/spigell/job-feed/internal/metrics"
	"github.com/spigell/job-feed/internal/ranking"
)

type Service struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		logger: logger.WithFields(log),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rank orders list for profile. A nil profile gives the recency-only feed.
// The clock is read once so every job is judged against the same instant.
func (s *Service) Rank(ctx context.Context, list *jobs.Jobs, profile *jobs.Profile) ([]ranking.ScoredJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []*jobs.Job
	if list != nil {
		items = list.Items
	}

	now := s.now()
	mode := metrics.ModeProfile
	if profile == nil {
		mode = metrics.ModeAnonymous
	}

	started := time.Now()
	scored := ranking.Rank(items, profile, now)
	elapsed := time.Since(started)

	for _, job := range scored {
		s.logger.Debug("job scored",
			append(logger.JobFields(&job.Job),
				zap.Int("match_score", job.MatchScore),
				zap.Strings("match_reasons", job.MatchReasons),
			)...,
		)
	}

	fields := []zap.Field{
		zap.String("mode", mode),
		zap.Int("jobs", len(scored)),
		zap.Time("evaluated_at", now),
		zap.Duration("took", elapsed),
	}
	if len(scored) > 0 {
		fields = append(fields, zap.Int("top_score", scored[0].MatchScore), zap.String("top_job_id", scored[0].ID))
	}
	s.logger.Info("feed ranked", fields...)

	if s.metrics != nil {
		s.metrics.ObserveRank(mode, len(scored), elapsed.Seconds())
		if len(scored) > 0 {
			s.metrics.SetLastTopScore(scored[0].MatchScore)
		}
	}

	return scored, nil
}

// Trim drops jobs below minScore and keeps at most top entries (top <= 0 keeps all).
// Order is preserved.
func Trim(scored []ranking.ScoredJob, minScore, top int) []ranking.ScoredJob {
	result := make([]ranking.ScoredJob, 0, len(scored))
	for _, job := range scored {
		if job.MatchScore < minScore {
			continue
		}
		result = append(result, job)
		if top > 0 && len(result) == top {
			break
		}
	}
	return result
}
