package ranking

import (
	"strings"
	"time"

	"github.com/spigell/job-feed/internal/jobs"
)

// Match reason labels, shown to the candidate next to a job.
const (
	ReasonSkills     = "Skills match"
	ReasonLocation   = "Near you"
	ReasonHeadline   = "Matches your profile"
	ReasonExperience = "Related experience"
	ReasonSalary     = "Salary match"
)

// Upper bounds of every contribution.
const (
	MaxSkillsPoints     = 40.0
	MaxLocationPoints   = 25.0
	MaxHeadlinePoints   = 20.0
	MaxExperiencePoints = 10.0
	MaxSalaryPoints     = 5.0
	MaxRecencyPoints    = 5.0
)

const (
	skillRequirementThreshold = 0.6
	skillTitleThreshold       = 0.5
	skillTitleBonus           = 0.5
	skillDescriptionBonus     = 0.3

	experienceTitleThreshold       = 0.5
	experienceDescriptionThreshold = 0.3
	experienceDescriptionPoints    = 8.0

	descriptionPrefixRunes = 200

	skillsReasonAt     = 15.0
	locationReasonAt   = 10.0
	headlineReasonAt   = 8.0
	experienceReasonAt = 4.0
	salaryReasonAt     = 3.0

	day = 24 * time.Hour
)

// Contribution is one sub-score: its points and, if the points are high
// enough to be worth showing, a reason label.
type Contribution struct {
	Points float64 `json:"points"`
	Reason string  `json:"reason,omitempty"`
}

func contribution(points, reasonAt float64, reason string) Contribution {
	c := Contribution{Points: points}
	if points >= reasonAt {
		c.Reason = reason
	}
	return c
}

// SkillsScore compares candidate skills with the job requirements, title and description.
func SkillsScore(profile *jobs.Profile, job *jobs.Job) Contribution {
	if profile == nil || job == nil || len(profile.Skills) == 0 || len(job.Requirements) == 0 {
		return Contribution{}
	}

	matches := 0.0
	for _, skill := range profile.Skills {
		for _, req := range job.Requirements {
			if Similarity(skill, req) >= skillRequirementThreshold {
				matches++
				break
			}
		}
	}

	description := normalize(job.Description)
	for _, skill := range profile.Skills {
		if Similarity(skill, job.Title) >= skillTitleThreshold {
			matches += skillTitleBonus
		}
		if s := normalize(skill); s != "" && strings.Contains(description, s) {
			matches += skillDescriptionBonus
		}
	}

	points := min(matches/float64(max(len(job.Requirements), 1))*MaxSkillsPoints, MaxSkillsPoints)

	return contribution(points, skillsReasonAt, ReasonSkills)
}

// LocationScore is skipped when either side has no location.
func LocationScore(profile *jobs.Profile, job *jobs.Job) Contribution {
	if profile == nil || job == nil || blank(profile.Location) || blank(job.Location) {
		return Contribution{}
	}

	points := Similarity(profile.Location, job.Location) * MaxLocationPoints

	return contribution(points, locationReasonAt, ReasonLocation)
}

// HeadlineScore compares the headline with the job title and the start of the description.
func HeadlineScore(profile *jobs.Profile, job *jobs.Job) Contribution {
	if profile == nil || job == nil || blank(profile.Headline) {
		return Contribution{}
	}

	best := max(
		Similarity(profile.Headline, job.Title),
		Similarity(profile.Headline, prefix(job.Description, descriptionPrefixRunes)),
	)

	return contribution(best*MaxHeadlinePoints, headlineReasonAt, ReasonHeadline)
}

// ExperienceScore keeps the best match over all experience entries, never a sum.
func ExperienceScore(profile *jobs.Profile, job *jobs.Job) Contribution {
	if profile == nil || job == nil || len(profile.Experience) == 0 {
		return Contribution{}
	}

	description := prefix(job.Description, descriptionPrefixRunes)

	best := 0.0
	for _, exp := range profile.Experience {
		if sim := Similarity(exp.Title, job.Title); sim >= experienceTitleThreshold {
			best = max(best, sim*MaxExperiencePoints)
		}
		if sim := Similarity(exp.Title, description); sim >= experienceDescriptionThreshold {
			best = max(best, sim*experienceDescriptionPoints)
		}
	}

	return contribution(best, experienceReasonAt, ReasonExperience)
}

// SalaryScore rewards salaries close to the expected one. Unparseable salaries score 0.
func SalaryScore(profile *jobs.Profile, job *jobs.Job) Contribution {
	if profile == nil || job == nil {
		return Contribution{}
	}

	expected := ParseSalary(profile.ExpectedSalary)
	offered := ParseSalary(job.Salary)
	if expected <= 0 || offered <= 0 {
		return Contribution{}
	}

	ratio := min(expected, offered) / max(expected, offered)

	return contribution(ratio*MaxSalaryPoints, salaryReasonAt, ReasonSalary)
}

// RecencyBonus is a step function of the job age relative to now.
// Jobs dated in the future count as fresh.
func RecencyBonus(createdAt int64, now time.Time) float64 {
	age := float64(now.UnixMilli()-createdAt) / float64(day.Milliseconds())

	switch {
	case age < 1:
		return 5
	case age < 3:
		return 3
	case age < 7:
		return 1
	default:
		return 0
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
