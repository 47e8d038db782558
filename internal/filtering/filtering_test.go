package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-feed/internal/jobs"
)

func newJobs() *jobs.Jobs {
	return &jobs.Jobs{Items: []*jobs.Job{
		{ID: "1", EmployerID: "e1", Status: jobs.StatusActive},
		{ID: "2", EmployerID: "e2", Status: jobs.StatusInactive},
		{ID: "3", EmployerID: "e2", Status: jobs.StatusActive},
		{ID: "4", EmployerID: "e3", Status: jobs.StatusActive},
		{ID: "5", EmployerID: "e1", Status: jobs.StatusClosed},
	}}
}

type failingFilter struct {
	validateErr error
	applyErr    error
	applied     bool
}

func (f *failingFilter) Name() string { return "failing" }
func (f *failingFilter) Disable(string) {}
func (f *failingFilter) IsEnabled() bool { return true }
func (f *failingFilter) Validate() error { return f.validateErr }
func (f *failingFilter) Apply(_ context.Context, v *jobs.Jobs) (*jobs.Jobs, Step, error) {
	f.applied = true
	return v, Step{}, f.applyErr
}

func TestRunFilters(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	excludePath := filepath.Join(t.TempDir(), "excluded.json")

	excluded := &jobs.ExcludedJobs{Items: []*jobs.ExcludedJob{{ID: "4"}}}
	if err := excluded.ToFile(excludePath); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	f := New([]Filter{
		NewStatus(nil, zap.New(core)),
		NewExcludedEmployers([]string{"e2"}),
		NewExcludeFile(excludePath),
	}, zap.New(core))

	got, err := f.RunFilters(context.Background(), newJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []string{"1"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, got.IDs())
	}

	steps := observed.FilterMessage("filter step").All()
	if len(steps) != 3 {
		t.Fatalf("expected 3 step logs, got %d", len(steps))
	}
	first := steps[0].ContextMap()
	if first["name"] != "status" || first["dropped"] != int64(2) || first["left"] != int64(3) {
		t.Fatalf("unexpected status step log: %v", first)
	}
}

func TestRunFiltersSkipsDisabled(t *testing.T) {
	f := New([]Filter{NewStatus([]string{"active"}, nil)}, nil)
	f.DisableByName("status", "requested")

	got, err := f.RunFilters(context.Background(), newJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 5 {
		t.Fatalf("expected all jobs to be kept, got %d", got.Len())
	}
}

func TestRunFiltersStopsOnValidationError(t *testing.T) {
	failing := &failingFilter{validateErr: errors.New("broken")}
	f := New([]Filter{failing}, nil)

	_, err := f.RunFilters(context.Background(), newJobs())
	if err == nil || err.Error() != "failing: broken" {
		t.Fatalf("unexpected error: %v", err)
	}
	if failing.applied {
		t.Fatalf("filter must not be applied after failed validation")
	}
}

func TestRunFiltersWrapsApplyError(t *testing.T) {
	sentinel := errors.New("boom")
	f := New([]Filter{&failingFilter{applyErr: sentinel}}, nil)

	_, err := f.RunFilters(context.Background(), newJobs())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestRunFiltersHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New([]Filter{NewExcludedEmployers(nil)}, nil)
	if _, err := f.RunFilters(ctx, newJobs()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStatusFilterCustomStatuses(t *testing.T) {
	v := newJobs()

	got, step, err := NewStatus([]string{" Inactive ", "closed"}, nil).Apply(context.Background(), v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"2", "5"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, got.IDs())
	}
	if step != (Step{Initial: 5, Dropped: 3, Left: 2}) {
		t.Fatalf("unexpected step: %+v", step)
	}
}

func TestStatusFilterNormalizesJobStatus(t *testing.T) {
	v := &jobs.Jobs{Items: []*jobs.Job{
		{ID: "1", Status: "Active"},
		{ID: "2", Status: " active "},
		{ID: "3", Status: "ACTIVE"},
		{ID: "4", Status: " Closed"},
		{ID: "5"},
	}}

	got, step, err := NewStatus(nil, nil).Apply(context.Background(), v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"1", "2", "3"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, got.IDs())
	}
	if step != (Step{Initial: 5, Dropped: 2, Left: 3}) {
		t.Fatalf("unexpected step: %+v", step)
	}
}

func TestStatusFilterRejectsBlankStatuses(t *testing.T) {
	if err := NewStatus([]string{"  "}, nil).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestExcludeFileFilterWithoutPath(t *testing.T) {
	_, step, err := NewExcludeFile("").Apply(context.Background(), newJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 0 || step.Left != 5 {
		t.Fatalf("unexpected step: %+v", step)
	}
}

func TestExcludeFileFilterBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := NewExcludeFile(path).Apply(context.Background(), newJobs()); err == nil {
		t.Fatalf("expected decode error")
	}
}
