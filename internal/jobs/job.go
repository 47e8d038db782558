package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

const (
	JobIDField         = "ID"
	JobEmployerIDField = "EmployerID"
	JobStatusField     = "Status"
)

// ErrInvalidInput is returned when a profile or job does not conform to the expected shape.
var ErrInvalidInput = errors.New("invalid input")

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusClosed   Status = "closed"
)

type Jobs struct {
	Items []*Job
}

type Job struct {
	ID           string   `json:"id" mapstructure:"id"`
	Title        string   `json:"title" mapstructure:"title"`
	Description  string   `json:"description" mapstructure:"description"`
	Company      string   `json:"company" mapstructure:"company"`
	Location     string   `json:"location" mapstructure:"location"`
	Salary       string   `json:"salary" mapstructure:"salary"`
	Type         string   `json:"type" mapstructure:"type"`
	Requirements []string `json:"requirements" mapstructure:"requirements"`
	EmployerID   string   `json:"employerId" mapstructure:"employerId"`
	// CreatedAt is epoch milliseconds.
	CreatedAt int64  `json:"createdAt" mapstructure:"createdAt"`
	Status    Status `json:"status" mapstructure:"status"`
}

type ExcludedJobs struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	ID         string
	Title      string
	Company    string
	ExcludedAt time.Time
}

// Validate reports whether the job can be ranked at all.
func (j *Job) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: job is null", ErrInvalidInput)
	}
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("%w: job id is required", ErrInvalidInput)
	}
	if j.CreatedAt < 0 {
		return fmt.Errorf("%w: job %s has negative createdAt", ErrInvalidInput, j.ID)
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with the original.
func (j *Job) Clone() Job {
	c := *j
	c.Requirements = slices.Clone(j.Requirements)
	return c
}

func (j *Job) GetStringField(name string) string {
	switch name {
	case JobIDField:
		return j.ID
	case JobEmployerIDField:
		return j.EmployerID
	case JobStatusField:
		return string(j.Status)
	default:
		return ""
	}
}

func (v *Jobs) Len() int {
	return len(v.Items)
}

func (v *Jobs) FindByID(id string) *Job {
	for _, job := range v.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (v *Jobs) IDs() []string {
	ids := make([]string, 0, len(v.Items))
	for _, job := range v.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

// Exclude drops jobs whose field matches any of targets and returns the dropped IDs.
// Relative order of the remaining jobs is preserved since ranking ties depend on it.
func (v *Jobs) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}

	var excluded []string
	kept := v.Items[:0:0]
	for _, job := range v.Items {
		if _, ok := set[job.GetStringField(name)]; ok {
			excluded = append(excluded, job.ID)
			continue
		}
		kept = append(kept, job)
	}
	v.Items = kept

	return excluded
}

// Keep retains only jobs whose field is one of allowed and returns the dropped IDs.
func (v *Jobs) Keep(name string, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}

	return v.KeepFunc(func(job *Job) bool {
		_, ok := set[job.GetStringField(name)]
		return ok
	})
}

// KeepFunc retains only jobs for which keep returns true and returns the dropped IDs.
func (v *Jobs) KeepFunc(keep func(*Job) bool) []string {
	var dropped []string
	kept := v.Items[:0:0]
	for _, job := range v.Items {
		if !keep(job) {
			dropped = append(dropped, job.ID)
			continue
		}
		kept = append(kept, job)
	}
	v.Items = kept

	return dropped
}

// ReportByCompany groups short job summaries by company.
func (v *Jobs) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range v.Items {
		key := fmt.Sprintf("%s (%s)", job.Company, job.EmployerID)
		report[key] = append(report[key], map[string]string{
			"id":           job.ID,
			"title":        job.Title,
			"location":     job.Location,
			"salary":       job.Salary,
			"type":         job.Type,
			"requirements": strings.Join(job.Requirements, ", "),
		})
	}
	return report
}

func (v *Jobs) ToExcluded() *ExcludedJobs {
	excluded := &ExcludedJobs{}
	for _, job := range v.Items {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			ID:         job.ID,
			Title:      job.Title,
			Company:    job.Company,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// DumpToTmpFile writes any JSON-encodable value to a fresh temp file and returns its name.
func DumpToTmpFile(v any) (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func GetExcludedJobsFromFile(path string) (*ExcludedJobs, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedJobs{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (v *ExcludedJobs) Append(s *ExcludedJobs) {
	v.Items = append(v.Items, s.Items...)
}

func (v *ExcludedJobs) JobIDs() []string {
	ids := make([]string, 0, len(v.Items))
	for _, job := range v.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

func (v *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
