package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/spigell/job-feed/internal/jobs"
)

// Breakdown holds every sub-score of one job. Reasons are listed in the
// order the sub-scores are evaluated.
type Breakdown struct {
	Skills     Contribution `json:"skills"`
	Location   Contribution `json:"location"`
	Headline   Contribution `json:"headline"`
	Experience Contribution `json:"experience"`
	Salary     Contribution `json:"salary"`
	Recency    float64      `json:"recency"`
}

// ScoredJob is a job together with its match score. The job is a copy:
// the input is never touched.
type ScoredJob struct {
	jobs.Job
	MatchScore   int        `json:"matchScore"`
	MatchReasons []string   `json:"matchReasons"`
	Breakdown    *Breakdown `json:"breakdown,omitempty"`
}

// Evaluate computes all sub-scores of job for profile at the given time.
// A nil job scores nothing.
func Evaluate(profile *jobs.Profile, job *jobs.Job, now time.Time) Breakdown {
	if job == nil {
		return Breakdown{}
	}

	return Breakdown{
		Skills:     SkillsScore(profile, job),
		Location:   LocationScore(profile, job),
		Headline:   HeadlineScore(profile, job),
		Experience: ExperienceScore(profile, job),
		Salary:     SalaryScore(profile, job),
		Recency:    RecencyBonus(job.CreatedAt, now),
	}
}

func (b Breakdown) contributions() []Contribution {
	return []Contribution{b.Skills, b.Location, b.Headline, b.Experience, b.Salary}
}

// Total is the unrounded sum of all sub-scores. It is not capped at 100:
// with the recency bonus it can reach 105.
func (b Breakdown) Total() float64 {
	total := b.Recency
	for _, c := range b.contributions() {
		total += c.Points
	}
	return total
}

// Reasons lists the reason of every sub-score that earned one, in evaluation order.
func (b Breakdown) Reasons() []string {
	reasons := make([]string, 0, 5)
	for _, c := range b.contributions() {
		if c.Reason != "" {
			reasons = append(reasons, c.Reason)
		}
	}
	return reasons
}

// Score rounds half up.
func (b Breakdown) Score() int {
	return int(math.Floor(b.Total() + 0.5))
}

// Rank scores every job against profile and returns them best first.
//
// Without a profile every job scores 0 and the feed is ordered newest first.
// With a profile jobs are ordered by score, then newest first. Remaining ties
// keep their input order. Nil entries in list are skipped.
func Rank(list []*jobs.Job, profile *jobs.Profile, now time.Time) []ScoredJob {
	scored := make([]ScoredJob, 0, len(list))

	for _, job := range list {
		if job == nil {
			continue
		}

		if profile == nil {
			scored = append(scored, ScoredJob{
				Job:          job.Clone(),
				MatchReasons: []string{},
			})
			continue
		}

		breakdown := Evaluate(profile, job, now)
		scored = append(scored, ScoredJob{
			Job:          job.Clone(),
			MatchScore:   breakdown.Score(),
			MatchReasons: breakdown.Reasons(),
			Breakdown:    &breakdown,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MatchScore != scored[j].MatchScore {
			return scored[i].MatchScore > scored[j].MatchScore
		}
		return scored[i].CreatedAt > scored[j].CreatedAt
	})

	return scored
}
