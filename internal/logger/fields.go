package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-feed/internal/jobs"
	"github.com/spigell/job-feed/internal/utils"
)

const (
	// FieldJobID is the structured log field key for the job identifier.
	FieldJobID = "job_id"
	// FieldCompany is the structured log field key for the hiring company.
	FieldCompany = "company"
	// FieldTitle is the structured log field key for the job title.
	FieldTitle = "title"

	maxTitleLength = 60
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// JobFields returns compact fields identifying a job. Long titles are truncated.
func JobFields(job *jobs.Job) []zap.Field {
	if job == nil {
		return nil
	}

	return StringFields(
		StringField{Key: FieldJobID, Value: job.ID},
		StringField{Key: FieldCompany, Value: job.Company},
		StringField{Key: FieldTitle, Value: utils.TruncateForLog(job.Title, maxTitleLength)},
	)
}

// ProfileFields summarizes a profile without logging its free text.
func ProfileFields(profile *jobs.Profile) []zap.Field {
	if profile == nil {
		return []zap.Field{zap.Bool("profile", false)}
	}

	return append(
		StringFields(
			StringField{Key: "location", Value: profile.Location},
			StringField{Key: "headline", Value: utils.TruncateForLog(profile.Headline, maxTitleLength)},
		),
		zap.Bool("profile", true),
		zap.Int("skills", len(profile.Skills)),
		zap.Int("experience_entries", len(profile.Experience)),
	)
}
