package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-feed/internal/jobs"
)

type statusFilter struct {
	enabled  bool
	reason   string
	statuses []string
	logger   *zap.Logger
}

// NewStatus keeps only jobs in one of the given statuses (active by default).
// The ranking engine never looks at status, so this is where closed postings go away.
func NewStatus(statuses []string, logger *zap.Logger) Filter {
	normalized := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s = normalizeStatus(s); s != "" {
			normalized = append(normalized, s)
		}
	}
	if len(statuses) == 0 {
		normalized = []string{string(jobs.StatusActive)}
	}

	return &statusFilter{
		enabled:  true,
		statuses: normalized,
		logger:   logger,
	}
}

func (f *statusFilter) Name() string { return "status" }

func (f *statusFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *statusFilter) IsEnabled() bool { return f.enabled }

func (f *statusFilter) Validate() error {
	if len(f.statuses) == 0 {
		return fmt.Errorf("at least one status is required")
	}
	return nil
}

func (f *statusFilter) Apply(_ context.Context, v *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := v.Len()

	allowed := make(map[string]struct{}, len(f.statuses))
	for _, s := range f.statuses {
		allowed[s] = struct{}{}
	}

	dropped := v.KeepFunc(func(job *jobs.Job) bool {
		_, ok := allowed[normalizeStatus(job.GetStringField(jobs.JobStatusField))]
		return ok
	})
	if len(dropped) > 0 && f.logger != nil {
		f.logger.Debug("excluding jobs by status",
			zap.Strings("allowed_statuses", f.statuses),
			zap.Strings("excluded_jobs", dropped),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
