package filtering

import (
	"context"

	"github.com/spigell/job-feed/internal/jobs"
)

type employersFilter struct {
	employers []string
}

// NewExcludedEmployers creates a filter that removes jobs posted by the given employers.
func NewExcludedEmployers(employers []string) Filter {
	return &employersFilter{
		employers: employers,
	}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Disable(string) {}

func (f *employersFilter) IsEnabled() bool { return true }

func (f *employersFilter) Validate() error { return nil }

func (f *employersFilter) Apply(_ context.Context, v *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := v.Len()
	if len(f.employers) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	excluded := v.Exclude(jobs.JobEmployerIDField, f.employers)

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}
